package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrStatus is returned when the service answers with an unexpected status.
var ErrStatus = errors.New("unexpected status")

// Client talks to the rating API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// submitResult classifies one POST /completions.
type submitResult int

const (
	submitAccepted submitResult = iota
	submitDuplicate
	submitFailed
)

// Submit posts one completion.
func (c *Client) Submit(ctx context.Context, comp Completion) (submitResult, error) {
	body, err := json.Marshal(comp)
	if err != nil {
		return submitFailed, fmt.Errorf("marshal completion: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return submitFailed, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return submitFailed, err
	}
	defer resp.Body.Close()

	var ack AckResponse
	_ = json.NewDecoder(resp.Body).Decode(&ack)
	switch resp.StatusCode {
	case http.StatusAccepted:
		return submitAccepted, nil
	case http.StatusOK:
		if ack.Duplicate {
			return submitDuplicate, nil
		}
		return submitAccepted, nil
	default:
		return submitFailed, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/healthz", nil)
}

// Rating fetches GET /ratings/{userID}.
func (c *Client) Rating(ctx context.Context, userID string) (Rating, error) {
	var r Rating
	err := c.getJSON(ctx, "/ratings/"+url.PathEscape(userID), &r)
	return r, err
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var out []Entry
	err := c.getJSON(ctx, "/leaderboard?limit="+strconv.Itoa(n), &out)
	return out, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/stats", &out)
	return out, err
}

// getJSON performs a GET and decodes a JSON body into v when v is non-nil.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: GET %s returned %d", ErrStatus, path, resp.StatusCode)
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
