package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/golfr/internal/adapters/backend"
	app "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/config"
	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GOLFR_ADDR", ":8181")
			_ = os.Setenv("GOLFR_QUEUE_SIZE", "1000")
			_ = os.Setenv("GOLFR_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("GOLFR_ADDR")
				_ = os.Unsetenv("GOLFR_QUEUE_SIZE")
				_ = os.Unsetenv("GOLFR_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the HTTP server is built", func() {
			cfg := config.New()
			svc := app.New(app.WithBackend(backend.NewMemory()))
			srv := newHTTPServer(cfg, svc, logger.Get())

			convey.Convey("Then it serves the API routes", func() {
				convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

				rec := httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				rec = httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses?q=pebble", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory-backed configuration", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 2
		cfg.ShutdownTimeoutSec = 2

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the backend kind is unknown", func() {
			cfg.Backend = "mongo"
			err := run(context.Background(), cfg)

			convey.Convey("Then run fails before serving", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "open backend")
			})
		})

		convey.Convey("When the address is unusable", func() {
			cfg.Addr = "256.0.0.1:99999"
			err := run(context.Background(), cfg)

			convey.Convey("Then the listener error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it returns once the context is done", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update", func() {
			svc := app.New()

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When runtime collectors are registered twice", func() {
			registry := prometheus.NewRegistry()

			convey.Convey("Then the second registration is ignored", func() {
				convey.So(func() {
					registerRuntimeCollectors(registry)
					registerRuntimeCollectors(registry)
				}, convey.ShouldNotPanic)
				families, err := registry.Gather()
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(families), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationResourceCleanup(t *testing.T) {
	convey.Convey("Given main application resource cleanup", t, func() {
		convey.Convey("When testing multiple service creation cycles", func() {
			convey.Convey("Then multiple services should be created successfully", func() {
				for i := 0; i < 3; i++ {
					svc := app.New()
					convey.So(svc, convey.ShouldNotBeNil)

					stats := svc.GetStats()
					convey.So(stats["started"], convey.ShouldEqual, false)
				}
			})
		})
	})
}
