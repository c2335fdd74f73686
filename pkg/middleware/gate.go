package middleware

import (
	"net/http"
	"strings"

	"github.com/marketgrid/gatekeeper/pkg/audit"
	"github.com/marketgrid/gatekeeper/pkg/auth"
	"github.com/marketgrid/gatekeeper/pkg/contextkeys"
	"github.com/marketgrid/gatekeeper/pkg/httputil"
	"github.com/marketgrid/gatekeeper/pkg/observability"
	"github.com/marketgrid/gatekeeper/pkg/policy"
)

// roleHintCookie is a denormalized role hint some clients set. It is never
// trusted for authorization; the resolved session is the sole source of
// truth. The gate only reads it to flag disagreement in debug logs.
const roleHintCookie = "role"

// Gate is the per-request dispatcher: it resolves the caller's session,
// asks the policy engine for a decision, records audit-worthy denials, and
// translates the decision into a pass-through or a protocol-level redirect.
type Gate struct {
	resolver *auth.Resolver
	engine   *policy.Engine
	recorder audit.Recorder
	logger   *observability.Logger
	metrics  *observability.Metrics

	bypassPrefixes []string
}

// NewGate creates the authorization gate. bypassPrefixes are path prefixes
// (API routes, static assets) the gate never intercepts: no session
// resolution, no audit. The favicon is always bypassed. metrics may be nil.
func NewGate(resolver *auth.Resolver, engine *policy.Engine, recorder audit.Recorder, logger *observability.Logger, metrics *observability.Metrics, bypassPrefixes []string) *Gate {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Gate{
		resolver:       resolver,
		engine:         engine,
		recorder:       recorder,
		logger:         logger,
		metrics:        metrics,
		bypassPrefixes: bypassPrefixes,
	}
}

// Handler wraps the next handler with the authorization gate
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if g.bypassed(path) {
			next.ServeHTTP(w, r)
			return
		}

		ip := httputil.ClientIP(r)
		session := g.resolver.Resolve(r)
		decision := g.engine.Decide(session, path)

		if g.metrics != nil {
			g.metrics.ObserveDecision(string(decision.Rule), string(decision.Action))
		}
		g.checkRoleHint(r, session)

		// Audit-worthy denials are dispatched before the redirect is
		// written, and never awaited: the recorder detaches delivery so
		// the response cannot depend on the sink.
		if decision.AuditAction != "" && session != nil {
			event := audit.NewEvent(session.UserID, decision.AuditAction, ip, map[string]interface{}{
				"pathname":  path,
				"role":      string(session.Role),
				"requestId": contextkeys.GetRequestID(r.Context()),
			})
			g.recorder.Record(r.Context(), event)
		}

		switch decision.Action {
		case policy.ActionAllow:
			ctx := contextkeys.WithClientIP(r.Context(), ip)
			if session != nil {
				ctx = contextkeys.WithSession(ctx, session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		case policy.ActionRedirect:
			g.logger.WithFields(map[string]interface{}{
				"path":   path,
				"target": decision.Target,
				"rule":   string(decision.Rule),
			}).Debug("redirecting request")
			httputil.WriteRedirect(w, r, decision.Target, decision.PreserveFrom)
		default:
			// Unreachable with the current engine; fail closed anyway.
			httputil.WriteRedirect(w, r, "/login", true)
		}
	})
}

// bypassed reports whether the path skips the gate entirely
func (g *Gate) bypassed(path string) bool {
	if path == "/favicon.ico" {
		return true
	}
	for _, prefix := range g.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// checkRoleHint compares the denormalized role cookie with the resolved
// session. Observational only.
func (g *Gate) checkRoleHint(r *http.Request, session *auth.Session) {
	hint, err := r.Cookie(roleHintCookie)
	if err != nil || session == nil {
		return
	}
	if hint.Value != string(session.Role) {
		g.logger.WithFields(map[string]interface{}{
			"hint": hint.Value,
			"role": string(session.Role),
		}).Debug("role hint cookie disagrees with resolved session")
	}
}

// SessionFromRequest extracts the resolved session injected by the gate.
// Returns nil when the request was not authenticated or did not pass
// through the gate.
func SessionFromRequest(r *http.Request) *auth.Session {
	val := r.Context().Value(contextkeys.SessionKey)
	if val == nil {
		return nil
	}
	session, ok := val.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}
