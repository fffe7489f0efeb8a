package backend

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
)

// checkQuery validates every column q refers to and normalises its values.
func checkQuery(table string, q Query) (Query, error) {
	if _, err := Columns(table); err != nil {
		return Query{}, err
	}
	out := Query{OrderBy: q.OrderBy, Desc: q.Desc, Limit: q.Limit}
	if len(q.Where) > 0 {
		out.Where = make(map[string]any, len(q.Where))
		for name, v := range q.Where {
			c, err := column(table, name)
			if err != nil {
				return Query{}, err
			}
			cv, err := coerce(c.Kind, v)
			if err != nil {
				return Query{}, fmt.Errorf("%s.%s: %w", table, name, err)
			}
			out.Where[name] = cv
		}
	}
	if len(q.In) > 0 {
		out.In = make(map[string][]any, len(q.In))
		for name, vs := range q.In {
			c, err := column(table, name)
			if err != nil {
				return Query{}, err
			}
			cvs := make([]any, len(vs))
			for i, v := range vs {
				cv, err := coerce(c.Kind, v)
				if err != nil {
					return Query{}, fmt.Errorf("%s.%s: %w", table, name, err)
				}
				cvs[i] = cv
			}
			out.In[name] = cvs
		}
	}
	if q.OrderBy != "" {
		if _, err := column(table, q.OrderBy); err != nil {
			return Query{}, err
		}
	}
	return out, nil
}

// matches reports whether row satisfies q's filters. q must be checked.
func matches(row Row, q Query) bool {
	for name, want := range q.Where {
		if compare(row[name], want) != 0 {
			return false
		}
	}
	for name, set := range q.In {
		found := false
		for _, want := range set {
			if row[name] != nil && compare(row[name], want) == 0 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// apply filters, orders and limits rows in place of a query engine.
func apply(rows []Row, q Query) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][q.OrderBy], out[j][q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// compare orders canonical values. NULL sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
