// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding, redirects, and middleware plumbing.
package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteErrorMessage(w, status, err.Error())
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// WriteInternalError writes an internal server error response (500)
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, err)
}

// WriteRedirect issues a temporary redirect to target, optionally carrying
// the originally requested path in the "from" query parameter. Targets are
// always absolute paths on the request's own origin.
func WriteRedirect(w http.ResponseWriter, r *http.Request, target string, preserveFrom bool) {
	if preserveFrom {
		u := url.URL{Path: target}
		q := u.Query()
		q.Set("from", r.URL.Path)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
