package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// Bolt stores each table in its own bucket of an embedded bbolt file,
// one JSON document per row keyed by id.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the database file at path and its buckets.
func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory %s: %w", dir, err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, t := range Tables {
			if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Insert(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	type staged struct {
		table string
		id    string
		data  []byte
	}
	batch := make([]staged, 0, len(writes))
	for _, w := range writes {
		row, id, err := normalizeInsert(w.Table, w.Row)
		if err != nil {
			return err
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal %s row: %w", w.Table, err)
		}
		batch = append(batch, staged{w.Table, id, data})
	}

	// A returned error rolls the whole transaction back.
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, s := range batch {
			bucket, err := tableBucket(tx, s.table)
			if err != nil {
				return err
			}
			if bucket.Get([]byte(s.id)) != nil {
				return fmt.Errorf("%w: %s/%s", ErrDuplicate, s.table, s.id)
			}
			if err := bucket.Put([]byte(s.id), s.data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cq, err := checkQuery(table, q)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = b.db.View(func(tx *bbolt.Tx) error {
		bucket, err := tableBucket(tx, table)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(_, v []byte) error {
			row, err := decodeRow(table, v)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return apply(rows, cq), nil
}

func (b *Bolt) Update(ctx context.Context, table, id string, patch Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := normalize(table, patch)
	if err != nil {
		return err
	}
	delete(p, IDColumn)

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tableBucket(tx, table)
		if err != nil {
			return err
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
		}
		row, err := decodeRow(table, data)
		if err != nil {
			return err
		}
		for k, v := range p {
			row[k] = v
		}
		out, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal %s row: %w", table, err)
		}
		return bucket.Put([]byte(id), out)
	})
}

func (b *Bolt) Delete(ctx context.Context, table string, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cq, err := checkQuery(table, Query{Where: q.Where, In: q.In})
	if err != nil {
		return 0, err
	}

	removed := 0
	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tableBucket(tx, table)
		if err != nil {
			return err
		}
		var keys [][]byte
		err = bucket.ForEach(func(k, v []byte) error {
			row, err := decodeRow(table, v)
			if err != nil {
				return err
			}
			if matches(row, cq) {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	return removed, err
}

func tableBucket(tx *bbolt.Tx, table string) (*bbolt.Bucket, error) {
	bucket := tx.Bucket([]byte(table))
	if bucket == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return bucket, nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func decodeRow(table string, data []byte) (Row, error) {
	var raw Row
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", table, err)
	}
	return normalize(table, raw)
}
