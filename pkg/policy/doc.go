// Package policy implements the authorization decision engine.
//
// Decide is a pure function: given a resolved session (or nil) and a
// request path it returns exactly one Decision, with no I/O and no hidden
// state. Seven rules are evaluated in strict order - public allow-list,
// unauthenticated redirect, top-level privileged confinement, per-portal
// eligibility, onboarding enforcement, restricted-root catch-all, and a
// final allow - and the first match wins.
//
// Denial does not exist as an outcome; every denial is a redirect to the
// login, landing, or onboarding path. Audit-worthiness is data on the
// Decision (AuditAction), so the engine stays pure and the dispatcher is
// the only component that touches the audit sink.
package policy
