package backend

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps rows in process, in insertion order.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	m := &Memory{tables: make(map[string][]Row, len(Tables))}
	for _, t := range Tables {
		m.tables[t] = nil
	}
	return m
}

func (m *Memory) Insert(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	type staged struct {
		table string
		row   Row
	}
	batch := make([]staged, 0, len(writes))
	seen := make(map[string]struct{}, len(writes))
	for _, w := range writes {
		row, id, err := normalizeInsert(w.Table, w.Row)
		if err != nil {
			return err
		}
		key := w.Table + "/" + id
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
		seen[key] = struct{}{}
		batch = append(batch, staged{w.Table, row})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range batch {
		if m.indexOf(s.table, s.row.String(IDColumn)) >= 0 {
			return fmt.Errorf("%w: %s/%s", ErrDuplicate, s.table, s.row.String(IDColumn))
		}
	}
	for _, s := range batch {
		m.tables[s.table] = append(m.tables[s.table], s.row)
	}
	return nil
}

func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cq, err := checkQuery(table, q)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	rows := apply(m.tables[table], cq)
	m.mu.RUnlock()

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

func (m *Memory) Update(ctx context.Context, table, id string, patch Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := normalize(table, patch)
	if err != nil {
		return err
	}
	delete(p, IDColumn)

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(table, id)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}
	row := cloneRow(m.tables[table][i])
	for k, v := range p {
		row[k] = v
	}
	m.tables[table][i] = row
	return nil
}

func (m *Memory) Delete(ctx context.Context, table string, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cq, err := checkQuery(table, Query{Where: q.Where, In: q.In})
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tables[table][:0:0]
	removed := 0
	for _, r := range m.tables[table] {
		if matches(r, cq) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[table] = kept
	return removed, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// indexOf must be called with m.mu held.
func (m *Memory) indexOf(table, id string) int {
	for i, r := range m.tables[table] {
		if r.String(IDColumn) == id {
			return i
		}
	}
	return -1
}
