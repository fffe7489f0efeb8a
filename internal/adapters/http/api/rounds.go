package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
)

// IdempotencyHeader carries the client's submission key on POST /rounds.
const IdempotencyHeader = "Idempotency-Key"

// roundRequest mirrors the body of POST /rounds.
type roundRequest struct {
	UserID     string            `json:"user_id"`
	CourseID   string            `json:"course_id"`
	DatePlayed string            `json:"date_played"`
	Score      int               `json:"score"`
	Holes      []model.HoleEntry `json:"holes"`
	Notes      string            `json:"notes"`
}

func (req roundRequest) round() (model.Round, error) { //nolint:gocritic // hugeParam: request bodies are decoded by value
	if strings.TrimSpace(req.UserID) == "" {
		return model.Round{}, fmt.Errorf("missing user_id")
	}
	r := model.Round{
		UserID:   req.UserID,
		CourseID: req.CourseID,
		Score:    req.Score,
		Holes:    req.Holes,
		Notes:    req.Notes,
	}
	if req.Score == 0 && len(req.Holes) > 0 {
		for _, h := range req.Holes {
			r.Score += h.Strokes
		}
	}
	if req.DatePlayed != "" {
		t, err := time.Parse(model.DateLayout, req.DatePlayed)
		if err != nil {
			return model.Round{}, fmt.Errorf("invalid date_played; must be %s", model.DateLayout)
		}
		r.PlayedOn = t
	}
	return r, nil
}

type roundResponse struct {
	Round     model.Round `json:"round"`
	Duplicate bool        `json:"duplicate"`
}

// handleSubmitRound handles POST /rounds. A repeated Idempotency-Key
// returns the first stored round with 200 instead of 201.
func (s *Server) handleSubmitRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_round"
	var req roundRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	round, err := req.round()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, duplicate, err := s.deps.SubmitRound(r.Context(), r.Header.Get(IdempotencyHeader), round)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, roundResponse{Round: stored, Duplicate: duplicate})
}

type startEntryRequest struct {
	UserID string `json:"user_id"`
}

type entryResponse struct {
	ID    string       `json:"id"`
	Entry entry.View   `json:"entry"`
	Round *model.Round `json:"round,omitempty"`
}

// handleStartEntry handles POST /entries.
func (s *Server) handleStartEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_entry"
	var req startEntryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id, view, err := s.deps.StartEntry(r.Context(), req.UserID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/entries/"+id)
	writeJSON(w, http.StatusCreated, entryResponse{ID: id, Entry: view})
}

// handleGetEntry handles GET /entries/{id}.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entry"
	id := mux.Vars(r)["id"]
	view, err := s.deps.Entry(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{ID: id, Entry: view})
}

// handleEntryAction handles POST /entries/{id}/actions.
func (s *Server) handleEntryAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.entry_action"
	id := mux.Vars(r)["id"]
	var cmd service.EntryCommand
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.ApplyEntryAction(r.Context(), id, cmd)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{ID: id, Entry: res.View, Round: res.Round})
}
