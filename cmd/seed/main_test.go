package main

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/internal/adapters/http/api"
	app "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/seed"
	"github.com/okian/golfr/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestSeedRun(t *testing.T) {
	convey.Convey("Given the seed tool", t, func() {
		ctx := context.Background()

		convey.Convey("When no URL is given", func() {
			_ = os.Setenv("GOLFR_BACKEND", "memory")
			defer func() { _ = os.Unsetenv("GOLFR_BACKEND") }()

			err := run(ctx, &seed.Config{Workers: 2, Verify: true})

			convey.Convey("Then the configured backend is seeded and verified", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a running server is targeted", func() {
			svc := app.New(app.WithBackend(backend.NewMemory()))
			srv := httptest.NewServer(api.NewServer(svc, svc).Router())
			defer srv.Close()

			err := run(ctx, &seed.Config{BaseURL: srv.URL, Workers: 2, Verify: true})

			convey.Convey("Then the data is loaded through the API", func() {
				convey.So(err, convey.ShouldBeNil)
				rounds, err := svc.Rounds(ctx, seed.CurrentUser)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rounds), convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When the server is unreachable", func() {
			err := run(ctx, &seed.Config{BaseURL: "http://127.0.0.1:1", Workers: 1})

			convey.Convey("Then the health check fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
			})
		})
	})
}
