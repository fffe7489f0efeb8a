package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/okian/golfr/internal/adapters/mq/queue"
	"github.com/okian/golfr/internal/adapters/repository"
	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
)

func TestWrapHelpers(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should stay nil")
	}

	cause := errors.New("boom")
	err := WrapKind("api.test", ErrBadRequest, cause)
	if !errors.Is(err, ErrBadRequest) || !errors.Is(err, cause) {
		t.Errorf("WrapKind should match kind and cause, got %v", err)
	}
	if got := err.Error(); got != "api.test: bad request: boom" {
		t.Errorf("unexpected message %q", got)
	}
	if got := NewKind("api.test", ErrBackpressure).Error(); got != "api.test: backpressure" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", model.ErrInvalidRound), http.StatusBadRequest, "bad_request"},
		{Wrap("op", service.ErrUnknownCourse), http.StatusBadRequest, "bad_request"},
		{Wrap("op", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{entry.ErrSessionNotFound, http.StatusNotFound, "not_found"},
		{entry.ErrNoCourse, http.StatusConflict, "conflict"},
		{service.ErrInFlight, http.StatusConflict, "conflict"},
		{queue.ErrFull, http.StatusTooManyRequests, "backpressure"},
		{fmt.Errorf("%w: %w", entry.ErrPersist, errors.New("db down")), http.StatusBadGateway, "persist_failed"},
		{fmt.Errorf("%w: %w", entry.ErrPersist, model.ErrInvalidHole), http.StatusBadRequest, "bad_request"},
		{errors.New("unexpected"), http.StatusInternalServerError, "internal_error"},
	}
	for _, c := range cases {
		status, code := classify(c.err)
		if status != c.status || code != c.code {
			t.Errorf("classify(%v) = %d/%s, want %d/%s", c.err, status, code, c.status, c.code)
		}
	}
}
