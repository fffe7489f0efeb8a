package api

import (
	"errors"
	"net/http"

	"github.com/okian/golfr/internal/adapters/mq/queue"
	"github.com/okian/golfr/internal/adapters/repository"
	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")

	errRouteNotFound = errors.New("route not found")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return e.op + ": " + e.kind.Error()
	case e.kind == nil:
		return e.op + ": " + e.err.Error()
	default:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind tags err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

type errorClass struct {
	status int
	code   string
	kinds  []error
}

// errorClasses is matched in order; the first class holding a kind the
// error wraps decides the response.
var errorClasses = []errorClass{
	{http.StatusBadRequest, "bad_request", []error{
		ErrBadRequest,
		service.ErrInvalidInput,
		service.ErrUnknownCourse,
		model.ErrInvalidRound,
		model.ErrInvalidHole,
		repository.ErrInvalidLimit,
		repository.ErrInvalidScore,
		repository.ErrSelfFollow,
		repository.ErrInvalidComment,
		repository.ErrInvalidPost,
		repository.ErrInvalidRanking,
		entry.ErrInvalidHoleCount,
		entry.ErrUnknownHole,
		entry.ErrUnknownAction,
	}},
	{http.StatusNotFound, "not_found", []error{
		errRouteNotFound,
		repository.ErrNotFound,
		entry.ErrSessionNotFound,
	}},
	{http.StatusConflict, "conflict", []error{
		service.ErrInFlight,
		entry.ErrNoCourse,
		entry.ErrWrongState,
		entry.ErrNoPrevious,
		entry.ErrFinished,
	}},
	{http.StatusTooManyRequests, "backpressure", []error{
		ErrBackpressure,
		queue.ErrFull,
	}},
	{http.StatusBadGateway, "persist_failed", []error{
		entry.ErrPersist,
	}},
}

// classify maps err to an HTTP status and error code.
func classify(err error) (int, string) {
	for _, c := range errorClasses {
		for _, kind := range c.kinds {
			if errors.Is(err, kind) {
				return c.status, c.code
			}
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
