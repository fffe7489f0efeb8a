package backend

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the storage type of a column.
type Kind int

// Column kinds. Values are normalised to string, int64, float64 and bool.
const (
	Text Kind = iota
	Integer
	Real
	Bool
)

// Column is one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Table names.
const (
	Profiles     = "profiles"
	Universities = "universities"
	GolfCourses  = "golf_courses"
	Rounds       = "rounds"
	HoleScores   = "hole_scores"
	Follows      = "follows"
	Likes        = "likes"
	Comments     = "comments"
	Posts        = "posts"
	Rankings     = "course_rankings"
)

// IDColumn is the primary key of every table.
const IDColumn = "id"

// TimeLayout is the fixed-width UTC layout of timestamp columns, so text
// ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Tables lists every table in creation order.
var Tables = []string{Profiles, Universities, GolfCourses, Rounds, HoleScores, Follows, Likes, Comments, Posts, Rankings}

var schema = map[string][]Column{
	Profiles: {
		{"id", Text},
		{"username", Text},
		{"full_name", Text},
		{"bio", Text},
		{"handicap", Real},
		{"university_id", Text},
		{"created_at", Text},
		{"updated_at", Text},
	},
	Universities: {
		{"id", Text},
		{"name", Text},
		{"short_name", Text},
		{"email_domain", Text},
	},
	GolfCourses: {
		{"id", Text},
		{"name", Text},
		{"city", Text},
		{"state", Text},
		{"holes", Integer},
		{"par", Integer},
		{"course_rating", Real},
		{"slope", Integer},
		{"difficulty", Real},
		{"has_driving_range", Bool},
		{"has_putting_green", Bool},
		{"seq", Integer},
	},
	Rounds: {
		{"id", Text},
		{"user_id", Text},
		{"course_id", Text},
		{"score", Integer},
		{"date_played", Text},
		{"notes", Text},
		{"created_at", Text},
	},
	HoleScores: {
		{"id", Text},
		{"round_id", Text},
		{"hole_number", Integer},
		{"par", Integer},
		{"score", Integer},
	},
	Follows: {
		{"id", Text},
		{"follower_id", Text},
		{"following_id", Text},
		{"created_at", Text},
	},
	Likes: {
		{"id", Text},
		{"user_id", Text},
		{"round_id", Text},
		{"created_at", Text},
	},
	Comments: {
		{"id", Text},
		{"user_id", Text},
		{"round_id", Text},
		{"content", Text},
		{"created_at", Text},
	},
	Posts: {
		{"id", Text},
		{"user_id", Text},
		{"content", Text},
		{"tagged_users", Text},
		{"tagged_courses", Text},
		{"created_at", Text},
	},
	Rankings: {
		{"id", Text},
		{"user_id", Text},
		{"course_id", Text},
		{"place", Integer},
	},
}

// Columns returns the columns of table in declaration order.
func Columns(table string) ([]Column, error) {
	cols, ok := schema[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return cols, nil
}

func column(table, name string) (Column, error) {
	cols, err := Columns(table)
	if err != nil {
		return Column{}, err
	}
	for _, c := range cols {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, name)
}

// coerce converts v to the canonical Go type of kind. nil passes through.
func coerce(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case Text:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case Integer:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case []byte:
			if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
				return n, nil
			}
		}
	case Real:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case []byte:
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				return f, nil
			}
		}
	case Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for kind %d", ErrInvalidValue, v, kind)
}

// normalize validates every column of row against table and returns a copy
// holding canonical values.
func normalize(table string, row Row) (Row, error) {
	if _, err := Columns(table); err != nil {
		return nil, err
	}
	out := make(Row, len(row))
	for name, v := range row {
		c, err := column(table, name)
		if err != nil {
			return nil, err
		}
		cv, err := coerce(c.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, name, err)
		}
		out[name] = cv
	}
	return out, nil
}

// normalizeInsert additionally requires a text id.
func normalizeInsert(table string, row Row) (Row, string, error) {
	out, err := normalize(table, row)
	if err != nil {
		return nil, "", err
	}
	id, _ := out[IDColumn].(string)
	if id == "" {
		return nil, "", fmt.Errorf("%w: table %s", ErrMissingID, table)
	}
	return out, id, nil
}
