// Package auth provides session resolution and role modelling for the
// gateway.
//
// A Session is a per-request value: the Resolver constructs it fresh from
// the identity backend on every request (no caching, so verification and
// role state are always current), and it is discarded when the request
// completes. All resolution failures collapse to "no session" - the
// resolver never surfaces an error, which is what makes the gate fail
// closed.
//
// The raw bearer token is a distinct unexported type scoped to this
// package. It exists only long enough to make the identity-backend call
// and is never attached to a Session, a log line, or a response.
//
// The Hierarchy is the immutable role hierarchy table, precomputed to its
// transitive closure at startup so Supersedes is an O(1) lookup with no
// recursion at decision time.
package auth
