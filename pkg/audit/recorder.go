package audit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/marketgrid/gatekeeper/pkg/observability"
)

// internalSecretHeader carries the shared secret the audit sink requires
const internalSecretHeader = "x-internal-secret"

// Recorder accepts audit events for best-effort delivery. Record must never
// block the caller's decision path and must never surface a failure.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// NopRecorder discards every event. Used when audit delivery is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, event Event) {}

// HTTPRecorder delivers events to the audit backend over HTTP. Each event
// gets exactly one delivery attempt on a detached goroutine with its own
// timeout; failures are logged locally and swallowed.
type HTTPRecorder struct {
	endpoint string
	secret   string
	timeout  time.Duration
	client   *http.Client
	logger   *observability.Logger
	metrics  *observability.Metrics

	wg sync.WaitGroup
}

// NewHTTPRecorder creates a recorder posting to {backendURL}/api/audit-logs.
// metrics may be nil.
func NewHTTPRecorder(backendURL, secret string, timeout time.Duration, logger *observability.Logger, metrics *observability.Metrics) *HTTPRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPRecorder{
		endpoint: backendURL + "/api/audit-logs",
		secret:   secret,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		metrics:  metrics,
	}
}

// Record dispatches the event on its own goroutine and returns immediately.
// The caller's context is ignored for delivery on purpose: the inbound
// request finishes (and its context is canceled) without waiting for the
// write.
func (r *HTTPRecorder) Record(ctx context.Context, event Event) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer observability.RecoverPanic(r.logger, "audit delivery")
		r.deliver(event)
	}()
}

// deliver makes the single delivery attempt. No retry.
func (r *HTTPRecorder) deliver(event Event) {
	start := time.Now()

	payload, err := event.ToJSON()
	if err != nil {
		r.logger.WithError(err).Error("audit delivery: marshal failed")
		r.observe("marshal_error", time.Since(start))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		r.logger.WithError(err).Error("audit delivery: building request failed")
		r.observe("error", time.Since(start))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(internalSecretHeader, r.secret)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WithError(err).WithField("action", event.Action).Error("audit delivery: sink unreachable")
		r.observe("unreachable", time.Since(start))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.WithField("status", resp.StatusCode).WithField("action", event.Action).Error("audit delivery: sink rejected event")
		r.observe("rejected", time.Since(start))
		return
	}

	r.observe("ok", time.Since(start))
}

// Drain waits for in-flight deliveries, bounded by the context. Used during
// graceful shutdown; a timeout here abandons stragglers rather than holding
// the process open.
func (r *HTTPRecorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *HTTPRecorder) observe(outcome string, duration time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveAuditDelivery(outcome, duration)
	}
}
