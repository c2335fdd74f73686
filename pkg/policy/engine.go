package policy

import (
	"strings"

	"github.com/marketgrid/gatekeeper/pkg/auth"
)

// Action is the kind of routing decision
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Rule identifies which rule produced a decision. Used for metrics and
// logging only; it carries no authorization meaning.
type Rule string

const (
	RulePublic      Rule = "public"
	RuleNoSession   Rule = "no_session"
	RuleSuperAdmin  Rule = "super_admin"
	RulePortal      Rule = "portal"
	RuleOnboarding  Rule = "onboarding"
	RuleCatchAll    Rule = "catch_all"
	RuleFallthrough Rule = "fallthrough"
)

// AuditUnauthorizedAdminAccess tags denied attempts on the market-admin
// portal. The tag travels on the Decision; the engine itself never talks
// to the audit sink.
const AuditUnauthorizedAdminAccess = "UNAUTHORIZED_ADMIN_ACCESS_ATTEMPT"

// Decision is the outcome of evaluating a session against a path.
// Denial is not a distinct outcome: every denial is a redirect, optionally
// flagged audit-worthy via AuditAction.
type Decision struct {
	Action Action

	// Target is the redirect target, an absolute path on the request's
	// own origin. Empty for Allow.
	Target string

	// PreserveFrom appends the originally requested path as a "from"
	// query parameter so the client can be returned there after login.
	PreserveFrom bool

	// AuditAction is the audit tag for audit-worthy denials, empty
	// otherwise.
	AuditAction string

	// Rule records which rule matched
	Rule Rule
}

// Mode selects the active rule set
type Mode string

const (
	// ModePortal rejects unapproved portal access with a redirect to the
	// default landing page.
	ModePortal Mode = "portal"

	// ModeOnboarding additionally funnels sessions that are not eligible
	// for any portal into the onboarding flow, and bounces cleared
	// sessions off the onboarding path (anti-loop).
	ModeOnboarding Mode = "onboarding"
)

// Paths holds the fixed route roots the engine evaluates against
type Paths struct {
	Login          string
	Landing        string
	Onboarding     string
	SuperAdminRoot string
	VendorRoot     string
	AdminRoot      string

	// Public is the exact-match allow-list evaluated before anything else
	Public []string

	// StaticPrefixes are asset prefixes allowed without a session
	StaticPrefixes []string
}

// DefaultPaths returns the platform's fixed route layout
func DefaultPaths() Paths {
	return Paths{
		Login:          "/login",
		Landing:        "/dashboard",
		Onboarding:     "/apply-access",
		SuperAdminRoot: "/super-admin",
		VendorRoot:     "/vendor",
		AdminRoot:      "/market-admin",
		Public:         []string{"/login", "/signup", "/", "/verify-email"},
		StaticPrefixes: []string{"/_next"},
	}
}

// Engine is the pure authorization decision function. It holds only
// immutable configuration, performs no I/O, and is safe for unsynchronized
// concurrent use.
type Engine struct {
	mode      Mode
	paths     Paths
	hierarchy *auth.Hierarchy
}

// NewEngine creates an authorization engine
func NewEngine(mode Mode, paths Paths, hierarchy *auth.Hierarchy) *Engine {
	if hierarchy == nil {
		hierarchy = auth.NewHierarchy()
	}
	return &Engine{
		mode:      mode,
		paths:     paths,
		hierarchy: hierarchy,
	}
}

// Decide evaluates a resolved session (nil means unauthenticated) against a
// request path. Rules are evaluated strictly in order; the first match wins
// and no further rule is consulted.
func (e *Engine) Decide(session *auth.Session, path string) Decision {
	// Rule 1: public allow-list and static assets, before the session is
	// even consulted.
	if e.isPublic(path) {
		return Decision{Action: ActionAllow, Rule: RulePublic}
	}

	// Rule 2: no session. Redirect to login carrying the original path so
	// the client can be returned after authentication.
	if session == nil {
		return Decision{
			Action:       ActionRedirect,
			Target:       e.paths.Login,
			PreserveFrom: true,
			Rule:         RuleNoSession,
		}
	}

	// Rule 3: top-level privileged role. Confined to the administrative
	// root; never falls through to role-specific logic.
	if e.hierarchy.IsTopLevel(session.Role) {
		if strings.HasPrefix(path, e.paths.SuperAdminRoot) {
			return Decision{Action: ActionAllow, Rule: RuleSuperAdmin}
		}
		return Decision{
			Action: ActionRedirect,
			Target: e.paths.SuperAdminRoot,
			Rule:   RuleSuperAdmin,
		}
	}

	// Rule 4: role-scoped portal protection. A session passing its own
	// portal's eligibility predicate is allowed here so the catch-all
	// below never re-evaluates it.
	if strings.HasPrefix(path, e.paths.VendorRoot) {
		if session.IsApprovedVendor() {
			return Decision{Action: ActionAllow, Rule: RulePortal}
		}
		return Decision{
			Action: ActionRedirect,
			Target: e.paths.Landing,
			Rule:   RulePortal,
		}
	}
	if strings.HasPrefix(path, e.paths.AdminRoot) {
		if session.IsApprovedAdmin() {
			return Decision{Action: ActionAllow, Rule: RulePortal}
		}
		return Decision{
			Action:      ActionRedirect,
			Target:      e.paths.Landing,
			AuditAction: AuditUnauthorizedAdminAccess,
			Rule:        RulePortal,
		}
	}

	// Rule 5: onboarding enforcement (onboarding mode only). Sessions
	// eligible for no portal are funneled to the onboarding path; cleared
	// sessions are bounced off it so neither state can loop.
	if e.mode == ModeOnboarding {
		if session.NeedsOnboarding() {
			if path != e.paths.Onboarding {
				return Decision{
					Action: ActionRedirect,
					Target: e.paths.Onboarding,
					Rule:   RuleOnboarding,
				}
			}
		} else if path == e.paths.Onboarding {
			return Decision{
				Action: ActionRedirect,
				Target: e.paths.Landing,
				Rule:   RuleOnboarding,
			}
		}
	}

	// Rule 6: catch-all restricted roots for sessions with no matching
	// approved role.
	for _, root := range []string{e.paths.VendorRoot, e.paths.AdminRoot, e.paths.SuperAdminRoot} {
		if strings.HasPrefix(path, root) {
			return Decision{
				Action: ActionRedirect,
				Target: e.paths.Landing,
				Rule:   RuleCatchAll,
			}
		}
	}

	// Rule 7: fallthrough
	return Decision{Action: ActionAllow, Rule: RuleFallthrough}
}

// Mode returns the engine's active rule set
func (e *Engine) Mode() Mode {
	return e.mode
}

// isPublic reports whether the path is on the fixed allow-list
func (e *Engine) isPublic(path string) bool {
	for _, route := range e.paths.Public {
		if path == route {
			return true
		}
	}
	for _, prefix := range e.paths.StaticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
