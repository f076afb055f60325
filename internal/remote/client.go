package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrWorkerUnavailable means the remote merge worker did not accept the job.
var ErrWorkerUnavailable = errors.New("remote merge worker unavailable")

// MergeRequest is the body posted to the remote merge worker.
type MergeRequest struct {
	BookID           string   `json:"bookId"`
	ChapterAudioURLs []string `json:"chapterAudioUrls"`
	CallbackURL      string   `json:"callbackUrl"`
}

// Client dispatches merge jobs to an external worker. Token and APIKey are
// both optional and sent independently.
type Client struct {
	endpoint   string
	token      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, token, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		token:      token,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DispatchMerge posts the job. Any transport error or non-2xx response is
// reported as ErrWorkerUnavailable.
func (c *Client) DispatchMerge(ctx context.Context, req MergeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal merge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrWorkerUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
