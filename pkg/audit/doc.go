// Package audit provides fire-and-forget delivery of security events to
// the audit backend.
//
// Delivery is at-most-once: one attempt per event, no retry, on a detached
// goroutine with its own timeout. A failed or slow write never alters the
// routing decision that produced the event and never surfaces to the
// caller - failures go to the local structured log and nowhere else.
package audit
