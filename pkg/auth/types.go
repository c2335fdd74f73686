package auth

// Role represents a platform role
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleMarketAdmin  Role = "MARKET_ADMIN"
	RoleCounterStaff Role = "COUNTER_STAFF"
	RoleVendor       Role = "VENDOR"
	RoleSupplier     Role = "SUPPLIER"
	RoleUser         Role = "USER"
)

// Roles lists every known role
var Roles = []Role{
	RoleSuperAdmin,
	RoleMarketAdmin,
	RoleCounterStaff,
	RoleVendor,
	RoleSupplier,
	RoleUser,
}

// Valid reports whether the role is a member of the closed enumeration
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleMarketAdmin, RoleCounterStaff, RoleVendor, RoleSupplier, RoleUser:
		return true
	}
	return false
}

// KYCStatus represents a vendor's identity-verification state
type KYCStatus string

const (
	KYCNone     KYCStatus = "NONE"
	KYCPending  KYCStatus = "PENDING"
	KYCVerified KYCStatus = "VERIFIED"
)

// AdminStatus represents a market admin's approval state
type AdminStatus string

const (
	AdminPending  AdminStatus = "PENDING"
	AdminApproved AdminStatus = "APPROVED"
)

// Session holds the resolved, per-request identity of the caller.
// It is constructed fresh for every request by the Resolver, never mutated,
// and discarded when the request completes. It never carries the raw
// credential it was resolved from.
type Session struct {
	UserID      string      `json:"id"`
	Email       string      `json:"email,omitempty"`
	Role        Role        `json:"role"`
	KYCStatus   KYCStatus   `json:"kycStatus,omitempty"`
	AdminStatus AdminStatus `json:"adminStatus,omitempty"`
}

// IsApprovedVendor reports whether the session may enter the vendor portal
func (s *Session) IsApprovedVendor() bool {
	return s.Role == RoleVendor && s.KYCStatus == KYCVerified
}

// IsApprovedAdmin reports whether the session may enter the market-admin portal
func (s *Session) IsApprovedAdmin() bool {
	return s.Role == RoleMarketAdmin && s.AdminStatus == AdminApproved
}

// NeedsOnboarding reports whether the session is not yet eligible for any
// portal. SUPER_ADMIN never needs onboarding.
func (s *Session) NeedsOnboarding() bool {
	if s.Role == RoleSuperAdmin {
		return false
	}
	return !s.IsApprovedVendor() && !s.IsApprovedAdmin()
}
