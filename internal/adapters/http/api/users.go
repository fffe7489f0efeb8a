package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/golfr/internal/domain/model"
)

// handleGetProfile handles GET /users/{id}/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	p, err := s.deps.Profile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Bio         string  `json:"bio"`
	Handicap    float64 `json:"handicap"`
}

// handlePutProfile handles PUT /users/{id}/profile.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_profile"
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id := mux.Vars(r)["id"]
	err := s.deps.UpdateProfile(r.Context(), model.UserProfile{
		ID:          id,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Handicap:    req.Handicap,
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	s.handleGetProfile(w, r)
}

// handleSearchUsers handles GET /users?q=&viewer=&limit=. A blank q
// returns suggestions.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_users"
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 || limit > s.maxLimit {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	v := r.URL.Query()
	users, err := s.deps.SearchUsers(r.Context(), v.Get("viewer"), v.Get("q"), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if users == nil {
		users = []model.UserProfile{}
	}
	writeJSON(w, http.StatusOK, users)
}

type handicapRequest struct {
	Handicap *float64 `json:"handicap"`
}

// handlePutHandicap handles PUT /users/{id}/handicap.
func (s *Server) handlePutHandicap(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_handicap"
	var req handicapRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Handicap == nil {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	if err := s.deps.SetHandicap(r.Context(), mux.Vars(r)["id"], *req.Handicap); err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	s.handleGetProfile(w, r)
}

// handleCourseRankings handles GET /users/{id}/course-rankings.
func (s *Server) handleCourseRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.course_rankings"
	list, err := s.deps.CourseRankings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.CourseRanking{}
	}
	writeJSON(w, http.StatusOK, list)
}

type rankingsRequest struct {
	Courses []string `json:"courses"`
}

// handlePutCourseRankings handles PUT /users/{id}/course-rankings. Courses
// are listed best first, by id or name.
func (s *Server) handlePutCourseRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_course_rankings"
	var req rankingsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	list, err := s.deps.SetCourseRankings(r.Context(), mux.Vars(r)["id"], req.Courses)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.CourseRanking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleUserRounds handles GET /users/{id}/rounds.
func (s *Server) handleUserRounds(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_rounds"
	rounds, err := s.deps.Rounds(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// handleAnalytics handles GET /users/{id}/analytics?course=.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	a, err := s.deps.Analytics(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("course"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type followResponse struct {
	Follower  string `json:"follower"`
	Following string `json:"following"`
	Changed   bool   `json:"changed"`
}

// handleFollow handles POST and DELETE /users/{id}/follow/{target}.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	const op = "api.follow"
	vars := mux.Vars(r)
	follower, target := vars["id"], vars["target"]

	var (
		changed bool
		err     error
	)
	if r.Method == http.MethodDelete {
		changed, err = s.deps.Unfollow(r.Context(), follower, target)
	} else {
		changed, err = s.deps.Follow(r.Context(), follower, target)
	}
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Follower: follower, Following: target, Changed: changed})
}
