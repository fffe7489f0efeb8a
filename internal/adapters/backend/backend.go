// Package backend is the row store behind the repository.
//
// Rows are JSON-shaped maps keyed by column name. Three implementations
// share the column registry in schema.go: an in-process store, an embedded
// bbolt file and a SQL database (postgres or sqlite). No call is retried;
// a failed call surfaces its error.
package backend

import (
	"context"
	"fmt"
)

// Row is one record keyed by column name.
type Row map[string]any

// String returns the text value of col, "" when absent or NULL.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Int returns the integer value of col, 0 when absent or NULL.
func (r Row) Int(col string) int {
	n, _ := r[col].(int64)
	return int(n)
}

// Float returns the real value of col and whether it was set.
func (r Row) Float(col string) (float64, bool) {
	f, ok := r[col].(float64)
	return f, ok
}

// Bool returns the boolean value of col, false when absent or NULL.
func (r Row) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

// Write is one row destined for table.
type Write struct {
	Table string
	Row   Row
}

// Query selects rows. Zero fields disable the corresponding clause.
type Query struct {
	Where   map[string]any   // column = value, all must hold
	In      map[string][]any // column IN values, all must hold
	OrderBy string
	Desc    bool
	Limit   int
}

// Backend is a row store.
type Backend interface {
	// Insert stores rows. Several writes are applied atomically: either
	// every row is stored or none is.
	Insert(ctx context.Context, writes ...Write) error
	// Select returns the rows of table matching q.
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Update merges patch into the row with the given id.
	Update(ctx context.Context, table, id string, patch Row) error
	// Delete removes the rows of table matching q's filters and returns
	// how many were removed.
	Delete(ctx context.Context, table string, q Query) (int, error)
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindMemory   = "memory"
	KindBolt     = "bolt"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Open creates a backend of the given kind. dsn is a file path for bolt,
// a connection string for postgres and sqlite, and ignored for memory.
// SQL schemas are created when missing.
func Open(ctx context.Context, kind, dsn string) (Backend, error) {
	switch kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindBolt:
		return OpenBolt(dsn)
	case KindPostgres, KindSQLite:
		s, err := OpenSQL(ctx, kind, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
