package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleFeed handles GET /feed?viewer=&limit=.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.feed"
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 || limit > s.maxLimit {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	posts, err := s.deps.Feed(r.Context(), r.URL.Query().Get("viewer"), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type postRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// handleAddPost handles POST /posts.
func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_post"
	var req postRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := s.deps.AddPost(r.Context(), req.UserID, req.Content)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type likeRequest struct {
	UserID string `json:"user_id"`
}

// handleLike handles POST /feed/{round}/like, for rounds and posts alike. The response is the state
// after the toggle; the backend write completes asynchronously.
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	const op = "api.toggle_like"
	var req likeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	state, err := s.deps.ToggleLike(r.Context(), req.UserID, mux.Vars(r)["round"])
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type commentRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// handleAddComment handles POST /feed/{round}/comments.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_comment"
	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := s.deps.Comment(r.Context(), req.UserID, mux.Vars(r)["round"], req.Content)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleComments handles GET /feed/{round}/comments.
func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	const op = "api.comments"
	list, err := s.deps.Comments(r.Context(), mux.Vars(r)["round"])
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
