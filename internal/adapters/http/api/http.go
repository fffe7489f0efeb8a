// Package api declares the HTTP contract of golfr and registers its routes
// on a gorilla/mux router.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
)

const (
	defaultLeaderboardLimit = 10
	defaultMaxLimit         = 100
	maxBodyBytes            = 1 << 20
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Profile(ctx context.Context, userID string) (service.Profile, error)
	UpdateProfile(ctx context.Context, p model.UserProfile) error
	Rounds(ctx context.Context, userID string) ([]model.Round, error)
	Analytics(ctx context.Context, userID, course string) (service.Analytics, error)
	SearchCourses(ctx context.Context, q catalog.Query) ([]model.Course, error)
	SearchUsers(ctx context.Context, viewer, term string, limit int) ([]model.UserProfile, error)
	SetHandicap(ctx context.Context, userID string, handicap float64) error
	CourseRankings(ctx context.Context, userID string) ([]model.CourseRanking, error)
	SetCourseRankings(ctx context.Context, userID string, courseKeys []string) ([]model.CourseRanking, error)

	SubmitRound(ctx context.Context, key string, r model.Round) (model.Round, bool, error)
	StartEntry(ctx context.Context, userID string) (string, entry.View, error)
	Entry(ctx context.Context, id string) (entry.View, error)
	ApplyEntryAction(ctx context.Context, id string, cmd service.EntryCommand) (service.EntryResult, error)

	Follow(ctx context.Context, follower, target string) (bool, error)
	Unfollow(ctx context.Context, follower, target string) (bool, error)
	Feed(ctx context.Context, viewer string, limit int) ([]model.Post, error)
	AddPost(ctx context.Context, userID, content string) (model.TextPost, error)
	ToggleLike(ctx context.Context, userID, roundID string) (service.LikeState, error)
	Comment(ctx context.Context, userID, roundID, content string) (model.Comment, error)
	Comments(ctx context.Context, roundID string) ([]model.Comment, error)

	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (model.LeaderboardEntry, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	stats    StatsProvider
	maxLimit int
	logger   logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps the limit accepted by list endpoints.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		stats:    stats,
		maxLimit: defaultMaxLimit,
		logger:   logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns a router with every route registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r *mux.Router) {
	r.Use(MetricsMiddleware, s.recoverMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, NewKind("api.route", errRouteNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/courses", s.handleCourses).Methods(http.MethodGet)

	r.HandleFunc("/users", s.handleSearchUsers).Methods(http.MethodGet)
	users := r.PathPrefix("/users/{id}").Subrouter()
	users.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	users.HandleFunc("/profile", s.handlePutProfile).Methods(http.MethodPut)
	users.HandleFunc("/handicap", s.handlePutHandicap).Methods(http.MethodPut)
	users.HandleFunc("/course-rankings", s.handleCourseRankings).Methods(http.MethodGet)
	users.HandleFunc("/course-rankings", s.handlePutCourseRankings).Methods(http.MethodPut)
	users.HandleFunc("/rounds", s.handleUserRounds).Methods(http.MethodGet)
	users.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)
	users.HandleFunc("/rank", s.handleRank).Methods(http.MethodGet)
	users.HandleFunc("/follow/{target}", s.handleFollow).Methods(http.MethodPost, http.MethodDelete)

	r.HandleFunc("/rounds", s.handleSubmitRound).Methods(http.MethodPost)

	r.HandleFunc("/entries", s.handleStartEntry).Methods(http.MethodPost)
	r.HandleFunc("/entries/{id}", s.handleGetEntry).Methods(http.MethodGet)
	r.HandleFunc("/entries/{id}/actions", s.handleEntryAction).Methods(http.MethodPost)

	r.HandleFunc("/feed", s.handleFeed).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.handleAddPost).Methods(http.MethodPost)
	r.HandleFunc("/feed/{round}/like", s.handleLike).Methods(http.MethodPost)
	r.HandleFunc("/feed/{round}/comments", s.handleComments).Methods(http.MethodGet)
	r.HandleFunc("/feed/{round}/comments", s.handleAddComment).Methods(http.MethodPost)

	r.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it as {code, message}.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// intParam parses an optional integer query parameter. Missing yields def.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// limitParam reads ?limit= and keeps it within 1..maxLimit.
func (s *Server) limitParam(r *http.Request, def int) (int, error) {
	n, err := intParam(r, "limit", def)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > s.maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d, got %d", s.maxLimit, n)
	}
	return n, nil
}
