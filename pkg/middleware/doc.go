// Package middleware provides the request-time authorization gate.
//
// The Gate intercepts every request that is not on the bypass list,
// resolves the caller's session, evaluates the policy engine, and turns
// the decision into a pass-through or an HTTP redirect. Each request is
// evaluated independently; the only shared state is the immutable policy
// configuration and role hierarchy, so no synchronization is needed.
//
// Control flow per request: bypass matcher -> session resolver -> policy
// engine -> (optional) audit recorder -> response. The audit write is
// dispatched before the redirect and never awaited.
package middleware
