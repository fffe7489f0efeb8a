package backend

import (
	"context"
	"time"

	"github.com/okian/golfr/pkg/logger"
	"github.com/okian/golfr/pkg/metrics"
)

type instrumented struct {
	next Backend
	log  logger.Logger
}

// Instrumented wraps b so every call is timed, counted and logged on
// failure.
func Instrumented(b Backend, log logger.Logger) Backend {
	return &instrumented{next: b, log: log}
}

func (i *instrumented) observe(ctx context.Context, op, table string, start time.Time, err error) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordBackendCall(op, table, err, ms)
	if err != nil && i.log != nil {
		i.log.Warn(ctx, "backend call failed",
			logger.String("op", op),
			logger.String("table", table),
			logger.Error(err),
		)
	}
}

func (i *instrumented) Insert(ctx context.Context, writes ...Write) error {
	start := time.Now()
	err := i.next.Insert(ctx, writes...)
	table := ""
	if len(writes) > 0 {
		table = writes[0].Table
	}
	i.observe(ctx, "insert", table, start, err)
	return err
}

func (i *instrumented) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := i.next.Select(ctx, table, q)
	i.observe(ctx, "select", table, start, err)
	return rows, err
}

func (i *instrumented) Update(ctx context.Context, table, id string, patch Row) error {
	start := time.Now()
	err := i.next.Update(ctx, table, id, patch)
	i.observe(ctx, "update", table, start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, table string, q Query) (int, error) {
	start := time.Now()
	n, err := i.next.Delete(ctx, table, q)
	i.observe(ctx, "delete", table, start, err)
	return n, err
}

func (i *instrumented) Close() error { return i.next.Close() }
