package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/golfr/internal/domain/catalog"
)

// handleCourses handles GET /courses.
func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_courses"
	q, err := courseQuery(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	courses, err := s.deps.SearchCourses(r.Context(), q)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func courseQuery(r *http.Request) (catalog.Query, error) {
	v := r.URL.Query()
	q := catalog.Query{Text: v.Get("q")}

	holes, err := intParam(r, "holes", 0)
	if err != nil {
		return q, err
	}
	if holes != 0 && holes != 9 && holes != 18 {
		return q, fmt.Errorf("holes must be 9 or 18, got %d", holes)
	}
	q.Holes = holes

	if d := v.Get("max_difficulty"); d != "" {
		if q.MaxDifficulty, err = strconv.ParseFloat(d, 64); err != nil {
			return q, fmt.Errorf("max_difficulty: %w", err)
		}
		if q.MaxDifficulty <= 0 {
			return q, fmt.Errorf("max_difficulty must be positive, got %s", d)
		}
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"driving_range", &q.DrivingRange},
		{"putting_green", &q.PuttingGreen},
		{"practice", &q.AnyPractice},
	}
	for _, f := range flags {
		if raw := v.Get(f.name); raw != "" {
			if *f.dst, err = strconv.ParseBool(raw); err != nil {
				return q, fmt.Errorf("%s: %w", f.name, err)
			}
		}
	}
	return q, nil
}
