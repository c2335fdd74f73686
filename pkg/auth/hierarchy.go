package auth

// Hierarchy is the immutable role hierarchy table. It is built once at
// process start and safe for unsynchronized concurrent reads: the
// transitive reachability set per role is precomputed at construction so
// every lookup is a single map probe, never a recursive walk.
type Hierarchy struct {
	reach map[Role]map[Role]bool
}

// defaultSubordinates declares which roles each role directly supersedes.
// Transitive relationships (e.g. MARKET_ADMIN over USER via COUNTER_STAFF)
// are derived at construction.
var defaultSubordinates = map[Role][]Role{
	RoleSuperAdmin:   {RoleMarketAdmin},
	RoleMarketAdmin:  {RoleCounterStaff, RoleVendor},
	RoleCounterStaff: {RoleUser},
	RoleVendor:       {RoleUser},
	RoleSupplier:     {RoleUser},
}

// NewHierarchy builds the default role hierarchy
func NewHierarchy() *Hierarchy {
	return NewHierarchyFromTable(defaultSubordinates)
}

// NewHierarchyFromTable builds a hierarchy from a direct-subordinates table,
// expanding it to its transitive closure.
func NewHierarchyFromTable(table map[Role][]Role) *Hierarchy {
	h := &Hierarchy{reach: make(map[Role]map[Role]bool, len(Roles))}

	for _, role := range Roles {
		reach := make(map[Role]bool)
		h.expand(table, role, reach)
		h.reach[role] = reach
	}

	return h
}

// expand walks the direct table depth-first, accumulating every reachable
// subordinate. The visited set doubles as cycle protection for malformed
// tables.
func (h *Hierarchy) expand(table map[Role][]Role, role Role, visited map[Role]bool) {
	for _, sub := range table[role] {
		if visited[sub] {
			continue
		}
		visited[sub] = true
		h.expand(table, sub, visited)
	}
}

// Supersedes reports whether actor may act on behalf of target.
// A role supersedes itself. SUPER_ADMIN supersedes every role regardless
// of the table contents.
func (h *Hierarchy) Supersedes(actor, target Role) bool {
	if actor == RoleSuperAdmin {
		return true
	}
	if actor == target {
		return true
	}
	return h.reach[actor][target]
}

// Subordinates returns the precomputed reachability set for a role
func (h *Hierarchy) Subordinates(role Role) []Role {
	reach := h.reach[role]
	subs := make([]Role, 0, len(reach))
	for _, r := range Roles {
		if reach[r] {
			subs = append(subs, r)
		}
	}
	return subs
}

// IsTopLevel reports whether the role supersedes every other role
func (h *Hierarchy) IsTopLevel(role Role) bool {
	for _, other := range Roles {
		if other == role {
			continue
		}
		if !h.Supersedes(role, other) {
			return false
		}
	}
	return true
}
