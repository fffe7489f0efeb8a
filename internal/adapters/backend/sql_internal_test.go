package backend

import (
	"errors"
	"testing"
)

func TestRebind(t *testing.T) {
	pg := &SQL{dialect: KindPostgres}
	lite := &SQL{dialect: KindSQLite}
	q := "SELECT id FROM rounds WHERE user_id = ? AND course_id IN (?, ?)"

	if got, want := pg.rebind(q), "SELECT id FROM rounds WHERE user_id = $1 AND course_id IN ($2, $3)"; got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
	if got := lite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name  string
		q     Query
		want  string
		nargs int
	}{
		{"empty", Query{}, "", 0},
		{"equality sorted", Query{Where: map[string]any{"user_id": "u", "course_id": "c"}}, " WHERE course_id = ? AND user_id = ?", 2},
		{"null", Query{Where: map[string]any{"course_id": nil}}, " WHERE course_id IS NULL", 0},
		{"in", Query{In: map[string][]any{"round_id": {"a", "b"}}}, " WHERE round_id IN (?, ?)", 2},
		{"empty in", Query{In: map[string][]any{"round_id": {}}}, " WHERE 1 = 0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := whereClause(tt.q)
			if got != tt.want || len(args) != tt.nargs {
				t.Fatalf("whereClause = %q (%d args), want %q (%d args)", got, len(args), tt.want, tt.nargs)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		kind Kind
		in   any
		want any
	}{
		{Text, []byte("abc"), "abc"},
		{Integer, float64(72), int64(72)},
		{Integer, 18, int64(18)},
		{Integer, []byte("9"), int64(9)},
		{Real, int64(113), float64(113)},
		{Real, []byte("74.5"), 74.5},
		{Bool, int64(1), true},
		{Bool, int64(0), false},
		{Bool, true, true},
		{Text, nil, nil},
	}
	for _, tt := range tests {
		got, err := coerce(tt.kind, tt.in)
		if err != nil || got != tt.want {
			t.Errorf("coerce(%d, %#v) = %#v, %v; want %#v", tt.kind, tt.in, got, err, tt.want)
		}
	}

	if _, err := coerce(Integer, 72.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("fractional integer accepted: %v", err)
	}
	if _, err := coerce(Text, 7); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("int accepted as text: %v", err)
	}
}
