package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the host part of the request's remote address. When the
// server trusts a proxy, chi's RealIP middleware has already rewritten
// RemoteAddr from X-Real-IP / X-Forwarded-For.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// RealIP stores a bare IP without a port.
		return addr
	}
	return host
}
