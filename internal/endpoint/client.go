package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxResponseSize caps how much of a response body is read (1MB). The
	// collection endpoint returns small JSON documents; anything larger is
	// an interstitial page.
	MaxResponseSize = 1 << 20
)

// ErrNoBasePath is returned when no candidate prefix answers the probe with
// a JSON response.
var ErrNoBasePath = errors.New("no base path candidate returned a JSON response")

// ChallengeError marks a delivery attempt that kept hitting an auth challenge
// or HTML interstitial even after warm-up retries.
type ChallengeError struct {
	StatusCode int
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("endpoint challenge not cleared (status %d)", e.StatusCode)
}

// StatusError is a non-2xx response that is neither a challenge nor a
// schema rejection.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d", e.StatusCode)
}

// Config holds the remote collection endpoint settings.
type Config struct {
	// Collection is the path segment POSTed to under the resolved base.
	Collection string

	// BasePathCandidates are probed in order; the first that answers the
	// probe with JSON is cached for all subsequent requests.
	BasePathCandidates []string

	// RequestTimeout bounds each HTTP request. Timeouts are soft failures.
	RequestTimeout time.Duration

	// WarmupRetries is how many times a challenged POST is retried within a
	// single delivery attempt after a warm-up GET.
	WarmupRetries int

	// WarmupPause is the wait between a warm-up GET and the retried POST.
	WarmupPause time.Duration
}

// Client delivers upsert payloads to the remote collection endpoint. It
// resolves and caches the correct base path, clears auth challenges with a
// warm-up GET, and degrades to a minimal payload on schema-shaped rejections.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	basePath string
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		cfg:    cfg,
		logger: logger,
	}
}

// ResolveBasePath probes the candidate prefixes once and caches the first
// that returns a JSON response rather than an HTML challenge page.
func (c *Client) ResolveBasePath(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.basePath != "" {
		return c.basePath, nil
	}

	for _, candidate := range c.cfg.BasePathCandidates {
		probeURL := c.collectionURL(candidate) + "?limit=1"
		resp, body, err := c.do(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			c.logger.Debug("base path probe failed", zap.String("candidate", candidate), zap.Error(err))
			continue
		}
		if resp.StatusCode == http.StatusOK && isJSON(resp, body) {
			c.basePath = candidate
			c.logger.Info("resolved endpoint base path", zap.String("basePath", candidate))
			return candidate, nil
		}
		c.logger.Debug("base path probe rejected",
			zap.String("candidate", candidate),
			zap.Int("status", resp.StatusCode),
			zap.String("contentType", resp.Header.Get("Content-Type")))
	}

	return "", ErrNoBasePath
}

// Upsert POSTs the sanitized payload, handling challenges within the attempt
// and falling back to the minimal payload once on a schema-shaped rejection.
// A nil return means the write landed; every error is retryable by the queue.
func (c *Client) Upsert(ctx context.Context, payload, minimal map[string]any) error {
	base, err := c.ResolveBasePath(ctx)
	if err != nil {
		return err
	}
	url := c.collectionURL(base)

	resp, err := c.postWithWarmup(ctx, url, payload)
	if err != nil {
		return err
	}

	if resp.schemaRejected && len(minimal) > 0 {
		c.logger.Warn("full payload rejected, retrying with minimal fields",
			zap.Int("status", resp.statusCode))
		resp, err = c.postWithWarmup(ctx, url, minimal)
		if err != nil {
			return err
		}
	}

	if resp.ok {
		return nil
	}
	return &StatusError{StatusCode: resp.statusCode}
}

type postResult struct {
	ok             bool
	schemaRejected bool
	statusCode     int
}

// postWithWarmup performs one delivery attempt: POST, and on an auth
// challenge or HTML interstitial, warm the session with a GET, pause, and
// retry a small fixed number of times before giving up on this attempt.
func (c *Client) postWithWarmup(ctx context.Context, url string, payload map[string]any) (postResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return postResult{}, fmt.Errorf("encode payload: %w", err)
	}

	var lastStatus int
	for try := 0; try <= c.cfg.WarmupRetries; try++ {
		resp, respBody, err := c.do(ctx, http.MethodPost, url, body)
		if err != nil {
			return postResult{}, fmt.Errorf("post upsert: %w", err)
		}
		lastStatus = resp.StatusCode

		switch {
		case isChallenge(resp, respBody):
			c.logger.Debug("endpoint challenged, warming up",
				zap.Int("status", resp.StatusCode), zap.Int("try", try))
			c.warmUp(ctx, url)
			select {
			case <-ctx.Done():
				return postResult{}, ctx.Err()
			case <-time.After(c.cfg.WarmupPause):
			}

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return postResult{ok: true, statusCode: resp.StatusCode}, nil

		case isSchemaRejection(resp):
			return postResult{schemaRejected: true, statusCode: resp.StatusCode}, nil

		default:
			return postResult{statusCode: resp.StatusCode}, nil
		}
	}

	return postResult{}, &ChallengeError{StatusCode: lastStatus}
}

// warmUp issues the probe GET against the collection to clear a reverse-proxy
// or WAF challenge. Failures are ignored; the retried POST decides.
func (c *Client) warmUp(ctx context.Context, url string) {
	if _, _, err := c.do(ctx, http.MethodGet, url+"?limit=1", nil); err != nil {
		c.logger.Debug("warm-up request failed", zap.Error(err))
	}
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, respBody, nil
}

func (c *Client) collectionURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(c.cfg.Collection, "/")
}

// isChallenge reports whether the response is an auth challenge or an HTML
// interstitial served in place of the API.
func isChallenge(resp *http.Response, body []byte) bool {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return true
	}
	return isHTML(resp, body)
}

// isSchemaRejection reports a schema-shaped rejection of the payload body.
func isSchemaRejection(resp *http.Response) bool {
	return resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity
}

func isJSON(resp *http.Response, body []byte) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func isHTML(resp *http.Response, body []byte) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(bytes.ToLower(body))
	return bytes.HasPrefix(trimmed, []byte("<!doctype")) || bytes.HasPrefix(trimmed, []byte("<html"))
}
