package workload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/logging"
)

// httpTimeout bounds a single fetch independently of the run deadline.
const httpTimeout = 30 * time.Second

// Session owns the resources one worker uses to execute requests. The HTTP
// client is created lazily, once per session, on the first fetch (never per
// item) and is not shared across workers. Worker processes, pool workers,
// and the single sequential/cooperative worker each hold their own Session.
type Session struct {
	once   sync.Once
	client *http.Client
}

// NewSession creates an empty session. No resources are acquired until the
// first request needs them.
func NewSession() *Session {
	return &Session{}
}

// Do executes one request, dispatching on its kind.
func (s *Session) Do(ctx context.Context, req Request) (Response, error) {
	switch req.Kind {
	case KindFetch:
		return s.fetch(ctx, req)
	case KindSumSquares:
		return sumSquaresRequest(ctx, req)
	default:
		return Response{}, fmt.Errorf("unknown workload kind %q", req.Kind)
	}
}

// Close releases the session's connections. Safe to call when no fetch ever
// ran.
func (s *Session) Close() error {
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
	return nil
}

func (s *Session) fetch(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	s.once.Do(func() {
		s.client = &http.Client{Timeout: httpTimeout}
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("building request for %s: %w", req.URL, err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("fetching %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Response{}, fmt.Errorf("fetching %s: unexpected status %s", req.URL, resp.Status)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading body of %s: %w", req.URL, err)
	}

	logging.FromContext(ctx).Debug().
		Str("component", "workload").
		Str("url", req.URL).
		Int64("bytes", n).
		Msg("fetched site")
	return Response{Bytes: n}, nil
}

// Factory adapts Session into an engine.Factory: every invocation hands the
// owning worker a fresh session of its own.
func Factory() engine.Factory[Request, Response] {
	return func() (engine.WorkFn[Request, Response], engine.CloseFn, error) {
		s := NewSession()
		return s.Do, s.Close, nil
	}
}
