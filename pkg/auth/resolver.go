package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/marketgrid/gatekeeper/pkg/observability"
)

// maxSessionBodySize bounds the identity backend response; anything larger
// is treated as malformed.
const maxSessionBodySize = 1 << 20

// rawToken is the bearer credential extracted from the request cookie.
// The type is unexported on purpose: the raw token is scoped to this
// package and is only ever converted to a string inside exchange, where it
// becomes the Authorization header of the identity-backend call. It is
// never stored on a Session, logged, or returned to callers.
type rawToken string

// Resolver exchanges a request's bearer-token cookie for a Session with the
// identity backend. Every failure mode collapses to "no session": the
// resolver never returns an error past its boundary.
type Resolver struct {
	backendURL string
	cookieName string
	timeout    time.Duration
	client     *http.Client
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewResolver creates a session resolver. metrics may be nil.
func NewResolver(backendURL, cookieName string, timeout time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		backendURL: backendURL,
		cookieName: cookieName,
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Resolve extracts the credential from the request and exchanges it for the
// caller's current session. Returns nil when no credential is present, when
// the backend is unreachable or times out, on any non-2xx status, and on a
// malformed body. The exchange is never cached; verification and role state
// must be current on every request.
func (r *Resolver) Resolve(req *http.Request) *Session {
	token, ok := r.tokenFromRequest(req)
	if !ok {
		r.observe("no_credential", 0)
		return nil
	}

	start := time.Now()
	session, outcome := r.exchange(req, token)
	r.observe(outcome, time.Since(start))

	return session
}

// tokenFromRequest pulls the bearer token out of the session cookie.
// No network call happens when the cookie is absent or empty.
func (r *Resolver) tokenFromRequest(req *http.Request) (rawToken, bool) {
	cookie, err := req.Cookie(r.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return rawToken(cookie.Value), true
}

// exchange calls GET /api/auth/me on the identity backend. The request
// context bounds the call: it inherits the inbound request's cancellation
// and adds the resolver's own timeout.
func (r *Resolver) exchange(req *http.Request, token rawToken) (*Session, string) {
	ctx, cancel := context.WithTimeout(req.Context(), r.timeout)
	defer cancel()

	backendReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.backendURL+"/api/auth/me", nil)
	if err != nil {
		r.logger.WithError(err).Warn("session exchange: building backend request failed")
		return nil, "error"
	}
	backendReq.Header.Set("Authorization", "Bearer "+string(token))
	backendReq.Header.Set("Cache-Control", "no-store")

	resp, err := r.client.Do(backendReq)
	if err != nil {
		// Deliberately not logging the error verbatim at a higher level:
		// a flapping backend would flood the logs once per request.
		r.logger.WithError(err).Debug("session exchange: identity backend unreachable")
		return nil, "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxSessionBodySize))
		return nil, "rejected"
	}

	var session Session
	body := io.LimitReader(resp.Body, maxSessionBodySize)
	if err := json.NewDecoder(body).Decode(&session); err != nil {
		r.logger.WithError(err).Warn("session exchange: malformed backend response")
		return nil, "malformed"
	}

	// Fail closed on an unusable session shape rather than letting a
	// partially-populated session reach the policy engine.
	if session.UserID == "" || !session.Role.Valid() {
		r.logger.WithField("role", string(session.Role)).Warn("session exchange: unusable session shape")
		return nil, "malformed"
	}

	return &session, "ok"
}

func (r *Resolver) observe(outcome string, duration time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveResolution(outcome, duration)
	}
}
