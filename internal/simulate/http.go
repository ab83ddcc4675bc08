package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/auge/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const maxResponseBytes = 1 << 20

// HTTPClient posts JSON to the engine API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request and decodes a JSON body into out when out is
// not nil.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// Post performs a POST request with a JSON body and decodes the answer into
// out when out is not nil.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil || resp.StatusCode >= http.StatusBadRequest || len(body) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

type outcome int

const (
	resultAccepted outcome = iota
	resultIgnored
	resultConflict
	resultFailed
)

type counters struct {
	submitted atomic.Int64
	accepted  atomic.Int64
	ignored   atomic.Int64
	conflicts atomic.Int64
	failed    atomic.Int64
	matched   atomic.Int64
}

// submit posts every request with at most workers in flight. Requests of
// different kinds carry no ordering constraint: an outcome that arrives
// before its prediction is stored unmatched and matched later.
func (r *Runner) submit(ctx context.Context, h History, stats *Stats) error {
	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, req := range h.Requests {
		req := req
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, matched := r.submitOne(gctx, req)
			c.submitted.Add(1)
			switch res {
			case resultAccepted:
				c.accepted.Add(1)
				if matched {
					c.matched.Add(1)
				}
			case resultIgnored:
				c.ignored.Add(1)
			case resultConflict:
				c.conflicts.Add(1)
			case resultFailed:
				c.failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}

	stats.Submitted = int(c.submitted.Load())
	stats.Accepted = int(c.accepted.Load())
	stats.Ignored = int(c.ignored.Load())
	stats.Conflicts = int(c.conflicts.Load())
	stats.Failed = int(c.failed.Load())
	stats.MatchedOutcomes = int(c.matched.Load())
	return nil
}

func (r *Runner) submitOne(ctx context.Context, req Request) (outcome, bool) {
	var ack AckResponse
	code, err := r.client.Post(ctx, req.Path, req.Body, &ack)
	if err != nil {
		r.reject(ctx, req, code, err)
		return resultFailed, false
	}
	switch code {
	case http.StatusAccepted:
		return resultAccepted, req.Kind == model.KindOutcome && ack.Matched
	case http.StatusOK:
		return resultIgnored, false
	case http.StatusConflict:
		return resultConflict, false
	default:
		r.reject(ctx, req, code, nil)
		return resultFailed, false
	}
}
