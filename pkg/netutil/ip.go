package netutil

import (
	"net"
	"net/http"
	"strings"
)

const forwardedForHeader = "X-Forwarded-For"

// GetClientIP returns the IP of the client that made the request. When
// trustForwarded is set, the first address in X-Forwarded-For is preferred,
// which is only safe behind a proxy that sets the header itself.
func GetClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get(forwardedForHeader); len(forwarded) > 0 {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
