// Package remote implements the retry/backoff/failover policy shared by every
// component that talks to an unreliable remote endpoint (upload relay, caption
// relay). A Policy holds only configuration; calls are reentrant and keep no
// state between invocations.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
)

const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 6 * time.Second
)

// Policy performs an authenticated JSON POST against one of a set of candidate
// endpoints, retrying with exponential backoff plus jitter on retryable
// failures and spreading retries across endpoints.
type Policy struct {
	endpoints   []string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	client      *http.Client
	logger      *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand

	// sleep is replaced in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config carries the tunables for a Policy. Zero values fall back to the
// package defaults.
type Config struct {
	Endpoints   []string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
}

func NewPolicy(cfg Config, logger *slog.Logger) (*Policy, error) {
	endpoints := make([]string, 0, len(cfg.Endpoints))
	for _, e := range cfg.Endpoints {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("remote: endpoint list is empty")
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}

	return &Policy{
		endpoints:   endpoints,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}, nil
}

// retryableError marks a failure worth another attempt. It never escapes Do.
type retryableError struct {
	reason string
}

func (e *retryableError) Error() string { return e.reason }

// Do posts payload as JSON and returns the decoded response object.
//
// Retryable: transport errors, HTTP 5xx, and an application statusCode >= 500
// embedded in a 200 proxy envelope. HTTP 4xx fails immediately as a client
// error. After maxAttempts the last retryable failure surfaces as
// apperr.ErrUpstreamFailed; responses that are not JSON objects surface as
// apperr.ErrUpstreamBadReply.
func (p *Policy) Do(ctx context.Context, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote: marshal payload: %w", err)
	}

	var lastRetryable error
	endpoint := ""

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		endpoint = p.pickEndpoint(endpoint, attempt)

		result, err := p.post(ctx, endpoint, body)
		if err == nil {
			return result, nil
		}

		var retryable *retryableError
		if !errors.As(err, &retryable) {
			return nil, err
		}
		lastRetryable = err

		p.logger.Warn("remote call failed, will retry",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
			"error", retryable.reason)

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return nil, err
		}
	}

	return nil, apperr.ErrUpstreamFailed.WithCause(lastRetryable)
}

func (p *Policy) post(ctx context.Context, endpoint string, body []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{reason: "read response: " + err.Error()}
	}

	if resp.StatusCode >= 500 {
		return nil, &retryableError{reason: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, apperr.ErrUpstreamRejected.WithCause(
			fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(respBody, 500)))
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, apperr.ErrUpstreamBadReply.WithCause(
			fmt.Errorf("decode response: %w", err))
	}

	return unwrapEnvelope(data)
}

// unwrapEnvelope handles proxy-compatible responses where the real payload
// and status hide inside a 200 envelope: {"statusCode": N, "body": {...}}.
// The body may itself be a JSON-encoded string.
func unwrapEnvelope(data map[string]any) (map[string]any, error) {
	raw, ok := data["statusCode"]
	if !ok {
		return data, nil
	}

	status, ok := toInt(raw)
	if !ok {
		return nil, apperr.ErrUpstreamBadReply.WithCause(
			fmt.Errorf("non-numeric statusCode %v", raw))
	}

	if status >= 500 {
		return nil, &retryableError{reason: fmt.Sprintf("envelope statusCode=%d", status)}
	}

	inner := map[string]any{}
	switch b := data["body"].(type) {
	case map[string]any:
		inner = b
	case string:
		if err := json.Unmarshal([]byte(b), &inner); err != nil {
			return nil, apperr.ErrUpstreamBadReply.WithCause(
				fmt.Errorf("decode envelope body: %w", err))
		}
	case nil:
	default:
		return nil, apperr.ErrUpstreamBadReply.WithCause(
			fmt.Errorf("unexpected envelope body type %T", b))
	}

	if status >= 400 {
		msg := "unknown upstream error"
		if s, ok := inner["error"].(string); ok && s != "" {
			msg = s
		}
		return nil, apperr.ErrUpstreamRejected.WithCause(
			fmt.Errorf("envelope statusCode=%d: %s", status, msg))
	}

	return inner, nil
}

// Delay computes the backoff before the next attempt: exponential growth
// capped at maxDelay, plus uniform jitter in [0, 0.1*delay].
func (p *Policy) Delay(attempt int) time.Duration {
	delay := p.baseDelay << uint(attempt-1)
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}
	jitter := time.Duration(p.randFloat() * 0.1 * float64(delay))
	return delay + jitter
}

// pickEndpoint chooses uniformly at random, excluding the previous endpoint
// on retries when more than one candidate exists.
func (p *Policy) pickEndpoint(previous string, attempt int) string {
	candidates := p.endpoints
	if attempt > 1 && previous != "" && len(p.endpoints) > 1 {
		filtered := make([]string, 0, len(p.endpoints)-1)
		for _, e := range p.endpoints {
			if e != previous {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return candidates[p.rnd.Intn(len(candidates))]
}

func (p *Policy) randFloat() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64()
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
