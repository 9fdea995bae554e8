// Package contest talks to the match server: listing matches, fetching the
// live board and submitting a team's actions.
package contest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrMatchNotFound is returned when the server does not know a match id.
var ErrMatchNotFound = errors.New("contest: match not found")

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client is an HTTP client for one team's token.
type Client struct {
	baseURL string
	token   string
	httpC   *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for baseURL that sends at most rps requests
// per second. rps <= 0 disables the limit.
func NewClient(baseURL, token string, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpC:   &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Matches lists the matches the team participates in.
func (c *Client) Matches(ctx context.Context) ([]MatchInfo, error) {
	var list MatchList
	if err := c.do(ctx, http.MethodGet, "/matches", nil, &list); err != nil {
		return nil, err
	}
	return list.Matches, nil
}

// Match fetches the current state of a match.
func (c *Client) Match(ctx context.Context, id int) (*MatchState, error) {
	var st MatchState
	if err := c.do(ctx, http.MethodGet, "/matches/"+strconv.Itoa(id), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SubmitActions posts the team's actions for the current turn.
func (c *Client) SubmitActions(ctx context.Context, id int, actions []AgentAction) error {
	return c.do(ctx, http.MethodPost, "/matches/"+strconv.Itoa(id)+"/action", ActionRequest{Actions: actions}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-token", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpC.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("contest request")

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/matches/") {
		return fmt.Errorf("%s: %w", path, ErrMatchNotFound)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrParse, method, path, err)
	}
	return nil
}
