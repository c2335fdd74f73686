package policy

import (
	"testing"

	"github.com/marketgrid/gatekeeper/pkg/auth"
)

func newTestEngine(mode Mode) *Engine {
	return NewEngine(mode, DefaultPaths(), auth.NewHierarchy())
}

func verifiedVendor() *auth.Session {
	return &auth.Session{UserID: "u-1", Role: auth.RoleVendor, KYCStatus: auth.KYCVerified}
}

func pendingVendor() *auth.Session {
	return &auth.Session{UserID: "u-2", Role: auth.RoleVendor, KYCStatus: auth.KYCPending}
}

func approvedAdmin() *auth.Session {
	return &auth.Session{UserID: "u-3", Role: auth.RoleMarketAdmin, AdminStatus: auth.AdminApproved}
}

func pendingAdmin() *auth.Session {
	return &auth.Session{UserID: "u-4", Role: auth.RoleMarketAdmin, AdminStatus: auth.AdminPending}
}

func superAdmin() *auth.Session {
	return &auth.Session{UserID: "u-5", Role: auth.RoleSuperAdmin}
}

func plainUser() *auth.Session {
	return &auth.Session{UserID: "u-6", Role: auth.RoleUser}
}

func TestDecide_PublicRoutes(t *testing.T) {
	engine := newTestEngine(ModePortal)

	publicPaths := []string{"/", "/login", "/signup", "/verify-email", "/_next/static/chunk.js", "/_next/image"}
	for _, path := range publicPaths {
		t.Run(path, func(t *testing.T) {
			d := engine.Decide(nil, path)
			if d.Action != ActionAllow {
				t.Errorf("expected allow for public path %s, got %s -> %s", path, d.Action, d.Target)
			}
			if d.Rule != RulePublic {
				t.Errorf("expected public rule, got %s", d.Rule)
			}
		})
	}

	t.Run("public routes are exact matches", func(t *testing.T) {
		d := engine.Decide(nil, "/login/reset")
		if d.Action != ActionRedirect {
			t.Errorf("expected redirect for non-public subpath, got %s", d.Action)
		}
	})
}

func TestDecide_NoSession(t *testing.T) {
	engine := newTestEngine(ModePortal)

	d := engine.Decide(nil, "/dashboard")
	if d.Action != ActionRedirect {
		t.Fatalf("expected redirect, got %s", d.Action)
	}
	if d.Target != "/login" {
		t.Errorf("expected login target, got %s", d.Target)
	}
	if !d.PreserveFrom {
		t.Error("expected original path to be preserved for post-login return")
	}
	if d.AuditAction != "" {
		t.Errorf("unauthenticated redirects are not audit-worthy, got %q", d.AuditAction)
	}
}

func TestDecide_SuperAdminConfinement(t *testing.T) {
	engine := newTestEngine(ModePortal)

	t.Run("allowed under administrative root", func(t *testing.T) {
		for _, path := range []string{"/super-admin", "/super-admin/audit-logs", "/super-admin/requests"} {
			d := engine.Decide(superAdmin(), path)
			if d.Action != ActionAllow {
				t.Errorf("expected allow for %s, got %s -> %s", path, d.Action, d.Target)
			}
		}
	})

	t.Run("redirected to administrative root elsewhere", func(t *testing.T) {
		for _, path := range []string{"/dashboard", "/vendor/products", "/market-admin", "/apply-access"} {
			d := engine.Decide(superAdmin(), path)
			if d.Action != ActionRedirect || d.Target != "/super-admin" {
				t.Errorf("expected redirect to /super-admin for %s, got %s -> %s", path, d.Action, d.Target)
			}
		}
	})

	t.Run("independent of verification statuses", func(t *testing.T) {
		// SUPER_ADMIN never falls through to role-specific checks, so
		// whatever status fields carry must not change the outcome.
		session := &auth.Session{
			UserID:      "u-7",
			Role:        auth.RoleSuperAdmin,
			KYCStatus:   auth.KYCNone,
			AdminStatus: auth.AdminPending,
		}
		if d := engine.Decide(session, "/super-admin/settings"); d.Action != ActionAllow {
			t.Errorf("expected allow, got %s", d.Action)
		}
		if d := engine.Decide(session, "/anywhere"); d.Target != "/super-admin" {
			t.Errorf("expected redirect to /super-admin, got %s", d.Target)
		}
	})
}

func TestDecide_VendorPortal(t *testing.T) {
	engine := newTestEngine(ModePortal)

	t.Run("verified vendor allowed", func(t *testing.T) {
		d := engine.Decide(verifiedVendor(), "/vendor/products")
		if d.Action != ActionAllow {
			t.Errorf("expected allow, got %s -> %s", d.Action, d.Target)
		}
	})

	t.Run("unverified vendor redirected to landing", func(t *testing.T) {
		for _, s := range []*auth.Session{pendingVendor(), {UserID: "u", Role: auth.RoleVendor, KYCStatus: auth.KYCNone}} {
			d := engine.Decide(s, "/vendor/products")
			if d.Action != ActionRedirect || d.Target != "/dashboard" {
				t.Errorf("expected redirect to /dashboard, got %s -> %s", d.Action, d.Target)
			}
			if d.AuditAction != "" {
				t.Errorf("vendor portal denial is not audit-worthy, got %q", d.AuditAction)
			}
		}
	})

	t.Run("non-vendor redirected off vendor portal", func(t *testing.T) {
		d := engine.Decide(approvedAdmin(), "/vendor")
		if d.Action != ActionRedirect || d.Target != "/dashboard" {
			t.Errorf("expected redirect to /dashboard, got %s -> %s", d.Action, d.Target)
		}
	})
}

func TestDecide_AdminPortal(t *testing.T) {
	engine := newTestEngine(ModePortal)

	t.Run("approved admin allowed", func(t *testing.T) {
		d := engine.Decide(approvedAdmin(), "/market-admin/settings")
		if d.Action != ActionAllow {
			t.Errorf("expected allow, got %s -> %s", d.Action, d.Target)
		}
	})

	t.Run("pending admin redirected with audit flag", func(t *testing.T) {
		d := engine.Decide(pendingAdmin(), "/market-admin/settings")
		if d.Action != ActionRedirect || d.Target != "/dashboard" {
			t.Fatalf("expected redirect to /dashboard, got %s -> %s", d.Action, d.Target)
		}
		if d.AuditAction != AuditUnauthorizedAdminAccess {
			t.Errorf("expected audit tag %q, got %q", AuditUnauthorizedAdminAccess, d.AuditAction)
		}
	})

	t.Run("vendor on admin portal redirected with audit flag", func(t *testing.T) {
		d := engine.Decide(verifiedVendor(), "/market-admin/settings")
		if d.Action != ActionRedirect {
			t.Fatalf("expected redirect, got %s", d.Action)
		}
		if d.AuditAction != AuditUnauthorizedAdminAccess {
			t.Errorf("expected audit tag, got %q", d.AuditAction)
		}
	})
}

func TestDecide_CatchAllRestrictedRoots(t *testing.T) {
	engine := newTestEngine(ModePortal)

	// A plain user reaching /super-admin is not handled by rules 3-5 and
	// must land on the catch-all.
	d := engine.Decide(plainUser(), "/super-admin/requests")
	if d.Action != ActionRedirect || d.Target != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %s -> %s", d.Action, d.Target)
	}
	if d.Rule != RuleCatchAll {
		t.Errorf("expected catch_all rule, got %s", d.Rule)
	}
}

func TestDecide_Fallthrough(t *testing.T) {
	engine := newTestEngine(ModePortal)

	for _, s := range []*auth.Session{plainUser(), verifiedVendor(), pendingVendor()} {
		d := engine.Decide(s, "/dashboard")
		if d.Action != ActionAllow {
			t.Errorf("expected allow on unrestricted path for role %s, got %s -> %s", s.Role, d.Action, d.Target)
		}
	}
}

func TestDecide_OnboardingMode(t *testing.T) {
	engine := newTestEngine(ModeOnboarding)

	t.Run("needs-onboarding session funneled to onboarding path", func(t *testing.T) {
		for _, path := range []string{"/dashboard", "/profile", "/orders"} {
			d := engine.Decide(pendingVendor(), path)
			if d.Action != ActionRedirect || d.Target != "/apply-access" {
				t.Errorf("expected redirect to /apply-access for %s, got %s -> %s", path, d.Action, d.Target)
			}
		}
	})

	t.Run("needs-onboarding session allowed on onboarding path", func(t *testing.T) {
		d := engine.Decide(pendingVendor(), "/apply-access")
		if d.Action != ActionAllow {
			t.Errorf("expected allow, got %s -> %s", d.Action, d.Target)
		}
	})

	t.Run("cleared session bounced off onboarding path", func(t *testing.T) {
		// Anti-loop: a session that does not need onboarding must never
		// be allowed to sit on the onboarding path.
		for _, s := range []*auth.Session{verifiedVendor(), approvedAdmin()} {
			d := engine.Decide(s, "/apply-access")
			if d.Action != ActionRedirect || d.Target != "/dashboard" {
				t.Errorf("expected redirect to /dashboard for role %s, got %s -> %s", s.Role, d.Action, d.Target)
			}
		}
	})

	t.Run("portal protection still precedes onboarding", func(t *testing.T) {
		// Rule 4 wins over rule 5: a pending vendor requesting the vendor
		// portal is turned away by portal protection, not funneled.
		d := engine.Decide(pendingVendor(), "/vendor/products")
		if d.Rule != RulePortal {
			t.Errorf("expected portal rule, got %s", d.Rule)
		}
		if d.Target != "/dashboard" {
			t.Errorf("expected /dashboard target, got %s", d.Target)
		}
	})

	t.Run("pending admin still audited before onboarding applies", func(t *testing.T) {
		d := engine.Decide(pendingAdmin(), "/market-admin")
		if d.AuditAction != AuditUnauthorizedAdminAccess {
			t.Errorf("expected audit tag, got %q", d.AuditAction)
		}
	})
}

func TestDecide_PortalModeSkipsOnboarding(t *testing.T) {
	engine := newTestEngine(ModePortal)

	d := engine.Decide(pendingVendor(), "/dashboard")
	if d.Action != ActionAllow {
		t.Errorf("portal mode must not funnel to onboarding, got %s -> %s", d.Action, d.Target)
	}

	d = engine.Decide(verifiedVendor(), "/apply-access")
	if d.Action != ActionAllow {
		t.Errorf("portal mode has no anti-loop rule, got %s -> %s", d.Action, d.Target)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	engine := newTestEngine(ModeOnboarding)

	inputs := []struct {
		session *auth.Session
		path    string
	}{
		{nil, "/dashboard"},
		{superAdmin(), "/vendor"},
		{pendingAdmin(), "/market-admin/settings"},
		{pendingVendor(), "/orders"},
	}

	for _, in := range inputs {
		first := engine.Decide(in.session, in.path)
		second := engine.Decide(in.session, in.path)
		if first != second {
			t.Errorf("decision not idempotent for path %s: %+v vs %+v", in.path, first, second)
		}
	}
}

func TestDecide_MalformedSessionFailsClosed(t *testing.T) {
	engine := newTestEngine(ModePortal)

	// An unknown role never matches a portal predicate and never reaches
	// a restricted root with approval; it must at most land on the
	// catch-all or fall through, never be allowed onto a portal.
	weird := &auth.Session{UserID: "u-8", Role: auth.Role("INTRUDER")}
	if d := engine.Decide(weird, "/vendor"); d.Action != ActionRedirect {
		t.Errorf("expected redirect for unknown role on portal, got %s", d.Action)
	}
	if d := engine.Decide(weird, "/super-admin"); d.Action != ActionRedirect {
		t.Errorf("expected redirect for unknown role on admin root, got %s", d.Action)
	}
}
