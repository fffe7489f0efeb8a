package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/golfr/internal/domain/model"
)

const idempotencyHeader = "Idempotency-Key"

// HTTPTarget seeds a running server through its API.
type HTTPTarget struct {
	base   string
	client *http.Client
}

// NewHTTPTarget creates a target for the server at baseURL.
func NewHTTPTarget(baseURL string, timeout time.Duration) *HTTPTarget {
	return &HTTPTarget{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends body as JSON and decodes a 2xx response into out. It returns the
// response status.
func (c *HTTPTarget) do(ctx context.Context, method, path string, header http.Header, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		_ = json.Unmarshal(data, &e)
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s: %s", ErrStatus, method, path, resp.StatusCode, e.Code, e.Message)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks GET /healthz.
func (c *HTTPTarget) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	return err
}

// UpdateProfile implements Target.
func (c *HTTPTarget) UpdateProfile(ctx context.Context, p model.UserProfile) error { //nolint:gocritic // hugeParam: matches the service signature
	body := map[string]any{
		"username":     p.Username,
		"display_name": p.DisplayName,
		"bio":          p.Bio,
		"handicap":     p.Handicap,
	}
	_, err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(p.ID)+"/profile", nil, body, nil)
	return err
}

// Rounds implements Target.
func (c *HTTPTarget) Rounds(ctx context.Context, userID string) ([]model.Round, error) {
	var out []model.Round
	_, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/rounds", nil, nil, &out)
	return out, err
}

// SubmitRound implements Target. A 200 answer marks a duplicate key.
func (c *HTTPTarget) SubmitRound(ctx context.Context, key string, r model.Round) (model.Round, bool, error) { //nolint:gocritic // hugeParam: matches the service signature
	body := map[string]any{
		"user_id":     r.UserID,
		"course_id":   r.CourseID,
		"date_played": r.PlayedOn.Format(model.DateLayout),
		"score":       r.Score,
		"holes":       r.Holes,
		"notes":       r.Notes,
	}
	var out struct {
		Round     model.Round `json:"round"`
		Duplicate bool        `json:"duplicate"`
	}
	header := http.Header{}
	if key != "" {
		header.Set(idempotencyHeader, key)
	}
	status, err := c.do(ctx, http.MethodPost, "/rounds", header, body, &out)
	if err != nil {
		return model.Round{}, false, err
	}
	return out.Round, out.Duplicate || status == http.StatusOK, nil
}

// Follow implements Target.
func (c *HTTPTarget) Follow(ctx context.Context, follower, target string) (bool, error) {
	var out struct {
		Changed bool `json:"changed"`
	}
	_, err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(follower)+"/follow/"+url.PathEscape(target), nil, nil, &out)
	return out.Changed, err
}

// Comment implements Target.
func (c *HTTPTarget) Comment(ctx context.Context, userID, roundID, content string) (model.Comment, error) {
	var out model.Comment
	body := map[string]string{"user_id": userID, "content": content}
	_, err := c.do(ctx, http.MethodPost, "/feed/"+url.PathEscape(roundID)+"/comments", nil, body, &out)
	return out, err
}

// Leaderboard implements Target.
func (c *HTTPTarget) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var out []model.LeaderboardEntry
	_, err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, nil, &out)
	return out, err
}
