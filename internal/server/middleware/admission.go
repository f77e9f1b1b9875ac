package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/core/admission"
	"github.com/namelens/genproxy/internal/metrics"
	"github.com/namelens/genproxy/internal/observability"
)

// RateLimitedMessage is returned to clients throttled by the admission gate.
const RateLimitedMessage = "Too many requests, please try again later."

// Admission throttles requests per client IP using gate. Rejections are
// written through respond so they share the service's error envelope.
func Admission(gate *admission.Gate, respond func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientIP(r)
			decision := gate.Check(clientID)
			metrics.RecordAdmission(decision.Allowed)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			if observability.ServerLogger != nil {
				observability.ServerLogger.Debug("Admission rejected",
					zap.String("client_ip", clientID),
					zap.Int("retry_after_seconds", retryAfter),
					zap.String("requestID", GetRequestID(r.Context())))
			}

			envelope := errors.NewErrorEnvelope("RATE_LIMITED", RateLimitedMessage).
				WithCorrelationID(GetRequestID(r.Context()))
			respond(w, r, envelope)
		})
	}
}
