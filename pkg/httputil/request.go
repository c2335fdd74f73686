package httputil

import (
	"net/http"
	"strings"
)

// UnspecifiedIP is the sentinel recorded when no forwarding header is
// present. It is only ever used for audit metadata, never authorization.
const UnspecifiedIP = "0.0.0.0"

// ClientIP extracts the originating client IP from the X-Forwarded-For
// header, taking the first hop when the header carries a chain. Falls back
// to the unspecified-address sentinel when absent.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			xff = xff[:idx]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}
	return UnspecifiedIP
}
