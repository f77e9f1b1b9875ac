package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/observability"
)

// WildcardOrigin allows every origin when present in the allow-list.
const WildcardOrigin = "*"

// OriginPolicy decides which browser origins may call the service.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewOriginPolicy builds a policy from configured origins. Entries are
// trimmed of whitespace and a trailing slash and lowercased, as go-chi/cors
// does; empty entries are ignored.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "" {
			continue
		}
		if origin == WildcardOrigin {
			p.allowAll = true
			continue
		}
		p.allowed[origin] = struct{}{}
	}
	return p
}

// Allows reports whether origin may proceed. An empty origin means the
// caller is not a browser and is always allowed.
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	if p == nil {
		return false
	}
	if p.allowAll {
		return true
	}
	_, ok := p.allowed[strings.ToLower(origin)]
	return ok
}

// AllowsAll reports whether the wildcard is configured.
func (p *OriginPolicy) AllowsAll() bool {
	return p != nil && p.allowAll
}

// Origins returns the explicit allow-list.
func (p *OriginPolicy) Origins() []string {
	if p == nil {
		return nil
	}
	origins := make([]string, 0, len(p.allowed))
	for origin := range p.allowed {
		origins = append(origins, origin)
	}
	return origins
}

// OriginGuard rejects requests whose Origin header is not allowed. Denial is a
// plain-text 403, not a JSON error envelope, and stops the chain.
func OriginGuard(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if policy.Allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			if observability.ServerLogger != nil {
				observability.ServerLogger.Warn("Origin rejected",
					zap.String("origin", origin),
					zap.String("path", r.URL.Path),
					zap.String("requestID", GetRequestID(r.Context())))
			}
			http.Error(w, "origin not allowed", http.StatusForbidden)
		})
	}
}
