// Package analysis submits snapshots to the remote analysis service.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/snapshot"
	"github.com/younsl/ec2stats/pkg/storage"
)

const (
	// DefaultTimeout bounds one submission round trip
	DefaultTimeout = 2 * time.Minute

	// maxBodyExcerpt caps the response body kept in a SubmissionError
	maxBodyExcerpt = 4096

	headerRequestID = "X-Request-Id"
)

// SubmissionError reports a failed round trip. StatusCode is zero for
// transport errors.
type SubmissionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("analysis request failed: %v", e.Err)
	}
	return fmt.Sprintf("analysis request failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Persister saves a raw document and returns where it was written
type Persister interface {
	Save(ctx context.Context, prefix string, data []byte) (string, error)
}

// Result is a decoded analysis response
type Result struct {
	Summary   *models.Summary
	RawPath   string
	RequestID string
}

// Options configures a Client
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
}

// Client talks to the analysis endpoint
type Client struct {
	url          string
	httpClient   *http.Client
	store        Persister
	userAgent    string
	newRequestID func() string
}

// NewClient creates a Client posting to url and saving responses with store
func NewClient(url string, store Persister, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		url:          url,
		httpClient:   httpClient,
		store:        store,
		userAgent:    opts.UserAgent,
		newRequestID: uuid.NewString,
	}
}

// URL returns the endpoint the client posts to
func (c *Client) URL() string {
	return c.url
}

// Analyze posts an encoded snapshot. Only HTTP 200 is a success; its raw body
// is saved before decoding so a malformed summary is still kept on disk.
// A save failure is logged and does not prevent decoding.
func (c *Client) Analyze(ctx context.Context, payload []byte) (*Result, error) {
	requestID := c.newRequestID()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	slog.Debug("submitting snapshot", "url", c.url, "request_id", requestID, "bytes", len(payload))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SubmissionError{
			StatusCode: resp.StatusCode,
			Body:       excerpt(body),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	result := &Result{RequestID: requestID}
	if c.store != nil {
		path, err := c.store.Save(ctx, storage.SummaryPrefix, body)
		if err != nil {
			slog.Warn("failed to save analysis response", "error", err)
		}
		result.RawPath = path
	}

	summary, err := snapshot.DecodeSummary(body)
	if err != nil {
		return result, err
	}
	result.Summary = summary
	return result, nil
}

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return string(body)
}
