package webhook

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
)

const maxErrorBody = 512

// ResolveEndpoint returns the agent's URL when set, otherwise the global one.
func ResolveEndpoint(agentURL, globalURL string) (string, error) {
	if u := strings.TrimSpace(agentURL); u != "" {
		return u, nil
	}
	if u := strings.TrimSpace(globalURL); u != "" {
		return u, nil
	}
	return "", ErrMissingEndpoint
}

// Request is a single webhook call.
type Request struct {
	Endpoint string
	Auth     Auth
	Payload  *Payload

	// Timeout overrides the configured default when positive.
	Timeout time.Duration
}

// RawResponse is a successful webhook response.
type RawResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Dispatcher POSTs payloads to webhook endpoints. Each call is attempted
// exactly once.
type Dispatcher struct {
	client          *http.Client
	timeout         time.Duration
	maxResponseSize int64
	metrics         *metrics
	logger          *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil client uses a default one with
// no client-level timeout; per-request timeouts come from the context.
func NewDispatcher(cfg *Config, client *http.Client, reg prometheus.Registerer, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Dispatcher{
		client:          client,
		timeout:         cfg.TimeoutDuration(),
		maxResponseSize: cfg.MaxResponseBytes(),
		metrics:         newMetrics(reg),
		logger:          logger.With("system", "webhook"),
	}
}

// Dispatch sends req. Failures are *DispatchError values of kind
// ErrTimeout, ErrTransport, or ErrServerError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*RawResponse, error) {
	if strings.TrimSpace(req.Endpoint) == "" {
		return nil, ErrMissingEndpoint
	}
	if req.Payload == nil {
		return nil, ErrEmptyTurn
	}

	timeout := d.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := d.do(ctx, req)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeOf(err)
	}
	elapsed := time.Since(start)
	d.metrics.observe(outcome, elapsed.Seconds())

	log := d.logger.With("endpoint", redact(req.Endpoint), "outcome", outcome, "duration", elapsed)
	if err != nil {
		log.Warn("webhook dispatch failed", "error", err)
		return nil, err
	}
	log.Debug("webhook dispatched", "status", resp.Status, "bytes", len(resp.Body))
	return resp, nil
}

func (d *Dispatcher) do(ctx context.Context, req Request) (*RawResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Payload.Body))
	if err != nil {
		return nil, &DispatchError{Kind: ErrTransport, Cause: err}
	}
	httpReq.Header.Set("Content-Type", req.Payload.ContentType)
	httpReq.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")
	req.Auth.Apply(httpReq.Header)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	var src io.Reader = resp.Body
	if d.maxResponseSize > 0 {
		src = io.LimitReader(resp.Body, d.maxResponseSize+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DispatchError{
			Kind:   ErrServerError,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	// A cut-off reply would be rendered as partial JSON.
	if d.maxResponseSize > 0 && int64(len(body)) > d.maxResponseSize {
		return nil, &DispatchError{Kind: ErrResponseTooLarge, Status: resp.StatusCode}
	}

	return &RawResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &DispatchError{Kind: ErrTimeout, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &DispatchError{Kind: ErrTimeout, Cause: err}
	}
	return &DispatchError{Kind: ErrTransport, Cause: err}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, ErrServerError):
		return outcomeServerError
	default:
		return outcomeTransport
	}
}

// redact strips credentials and query strings from endpoints before logging.
func redact(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		endpoint = endpoint[:i]
	}
	if scheme, rest, ok := strings.Cut(endpoint, "://"); ok {
		if at := strings.Index(rest, "@"); at >= 0 && at < strings.IndexByte(rest+"/", '/') {
			rest = rest[at+1:]
		}
		return scheme + "://" + rest
	}
	return endpoint
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "…"
}
