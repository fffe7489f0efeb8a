package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQL stores rows in postgres (lib/pq) or sqlite (modernc.org/sqlite).
type SQL struct {
	db      *sql.DB
	dialect string
}

// OpenSQL connects with the given dialect, KindPostgres or KindSQLite, and
// creates missing tables.
func OpenSQL(ctx context.Context, dialect, dsn string) (*SQL, error) {
	var driver string
	switch dialect {
	case KindPostgres:
		driver = "postgres"
	case KindSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == KindSQLite {
		// One connection keeps a ":memory:" database shared and
		// serialises writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	s := &SQL{db: db, dialect: dialect}
	if err := s.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *SQL) DB() *sql.DB { return s.db }

func sqlType(k Kind) string {
	switch k {
	case Integer:
		return "INTEGER"
	case Real:
		return "DOUBLE PRECISION"
	case Bool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// DDL returns the CREATE TABLE statements for every table.
func DDL() []string {
	stmts := make([]string, 0, len(Tables))
	for _, t := range Tables {
		cols := schema[t]
		defs := make([]string, len(cols))
		for i, c := range cols {
			defs[i] = c.Name + " " + sqlType(c.Kind)
			if c.Name == IDColumn {
				defs[i] += " PRIMARY KEY"
			}
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", t, strings.Join(defs, ",\n    ")))
	}
	return stmts
}

// CreateSchema creates missing tables. Safe to call repeatedly.
func (s *SQL) CreateSchema(ctx context.Context) error {
	for _, stmt := range DDL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQL) rebind(query string) string {
	if s.dialect != KindPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) Insert(ctx context.Context, writes ...Write) error {
	type stmt struct {
		query string
		args  []any
	}
	stmts := make([]stmt, 0, len(writes))
	for _, w := range writes {
		row, _, err := normalizeInsert(w.Table, w.Row)
		if err != nil {
			return err
		}
		names := sortedKeys(row)
		args := make([]any, len(names))
		for i, n := range names {
			args[i] = row[n]
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			w.Table, strings.Join(names, ", "), placeholders(len(names)))
		stmts = append(stmts, stmt{s.rebind(q), args})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			_ = tx.Rollback()
			return s.classify(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQL) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	cq, err := checkQuery(table, q)
	if err != nil {
		return nil, err
	}
	cols := schema[table]
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	where, args := whereClause(cq)
	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(names, ", "), table, where)
	if cq.OrderBy != "" {
		query += " ORDER BY " + cq.OrderBy
		if cq.Desc {
			query += " DESC"
		}
	}
	if cq.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(cq.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			v, err := coerce(c.Kind, vals[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", table, c.Name, err)
			}
			row[c.Name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return out, nil
}

func (s *SQL) Update(ctx context.Context, table, id string, patch Row) error {
	p, err := normalize(table, patch)
	if err != nil {
		return err
	}
	delete(p, IDColumn)
	if len(p) == 0 {
		return nil
	}
	names := sortedKeys(p)
	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, n := range names {
		sets[i] = n + " = ?"
		args = append(args, p[n])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, table string, q Query) (int, error) {
	cq, err := checkQuery(table, Query{Where: q.Where, In: q.In})
	if err != nil {
		return 0, err
	}
	where, args := whereClause(cq)
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+table+where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return int(n), nil
}

// Close closes the connection pool.
func (s *SQL) Close() error { return s.db.Close() }

// classify maps unique violations of either driver to ErrDuplicate.
func (s *SQL) classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s", ErrDuplicate, liteErr.Error())
		}
	}
	return fmt.Errorf("insert: %w", err)
}

func whereClause(q Query) (string, []any) {
	var conds []string
	var args []any
	for _, name := range sortedKeys(q.Where) {
		v := q.Where[name]
		if v == nil {
			conds = append(conds, name+" IS NULL")
			continue
		}
		conds = append(conds, name+" = ?")
		args = append(args, v)
	}
	for _, name := range sortedKeys(q.In) {
		vs := q.In[name]
		if len(vs) == 0 {
			conds = append(conds, "1 = 0")
			continue
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", name, placeholders(len(vs))))
		args = append(args, vs...)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
