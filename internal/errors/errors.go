package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/ailink"
	"github.com/namelens/genproxy/internal/metrics"
	"github.com/namelens/genproxy/internal/observability"
	"github.com/namelens/genproxy/internal/server/middleware"
)

// Error codes used in HTTP error bodies.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeUpstreamRateLimited = ailink.CodeUpstreamRateLimited
	CodeUpstreamError       = ailink.CodeUpstreamError
	CodeConfigMissing       = ailink.CodeConfigMissing
	CodeInternal            = ailink.CodeInternal
)

// statusContextKey carries an explicit HTTP status on an envelope, used when
// the status comes from upstream rather than from the code.
const statusContextKey = "http_status"

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewRateLimitedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeRateLimited, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(CodeInternal, message)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// NewConfigInvalidError reports unusable configuration, outside any request.
func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope("CONFIG_INVALID", message)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// WrapConfigInvalid builds a CONFIG_INVALID envelope around err.
func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := NewConfigInvalidError(message)
	envelope = EnsureCorrelationID(envelope, ctx)
	if err != nil {
		envelope = envelope.WithDetails(map[string]interface{}{"error": err.Error()})
	}
	return envelope
}

// WrapInternal builds an INTERNAL_ERROR envelope around err.
func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := NewInternalError(message)
	envelope = EnsureCorrelationID(envelope, ctx)
	if err != nil {
		envelope = envelope.WithDetails(map[string]interface{}{"error": err.Error()})
	}
	return envelope
}

// WrapInvalidInput builds an INVALID_INPUT envelope for ctx's request. err is
// kept as a detail for development mode.
func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(CodeInvalidInput, message)
	envelope = EnsureCorrelationID(envelope, ctx)
	if err != nil {
		envelope = envelope.WithDetails(map[string]interface{}{"error": err.Error()})
	}
	return envelope
}

// FromGenerateError converts a generation failure into an envelope that keeps
// its status code.
func FromGenerateError(ctx context.Context, gerr *ailink.GenerateError) *errors.ErrorEnvelope {
	if gerr == nil {
		return NewInternalError("unexpected nil error")
	}

	envelope := errors.NewErrorEnvelope(gerr.Code, gerr.Message)
	envelope = EnsureCorrelationID(envelope, ctx)
	if gerr.Details != "" {
		envelope = envelope.WithDetails(map[string]interface{}{"error": gerr.Details})
	}

	severity := errors.SeverityMedium
	if gerr.HTTPStatus() >= http.StatusInternalServerError {
		severity = errors.SeverityHigh
	}
	envelope, _ = envelope.WithSeverity(severity)

	if updated, err := envelope.WithContext(map[string]interface{}{
		statusContextKey: gerr.HTTPStatus(),
	}); err == nil {
		envelope = updated
	}
	return envelope
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	var gerr *ailink.GenerateError
	if stderrors.As(err, &gerr) {
		return FromGenerateError(context.TODO(), gerr)
	}

	env := NewInternalError("Internal server error")
	return env.WithDetails(map[string]interface{}{"error": err.Error()})
}

// EnsureCorrelationID attaches the request ID from ctx when the envelope has none.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status for an envelope, preferring
// an explicit status carried in its context.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	if status := contextStatus(envelope.Context[statusContextKey]); status >= 300 && status <= 599 {
		return status
	}
	return HTTPStatusFromCode(envelope.Code)
}

func contextStatus(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// HTTPStatusFromCode resolves the HTTP status for an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited, CodeUpstreamRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstreamError:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResponseDetails returns the details safe to send to callers, or nil outside
// development mode.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	if envelope == nil || !middleware.ExposeErrorDetails() || len(envelope.Details) == 0 {
		return nil
	}

	details := make(map[string]interface{}, len(envelope.Details))
	for key, value := range envelope.Details {
		details[key] = value
	}
	return details
}

// HTTPErrorResponse is the error body returned to callers. Error carries the
// human-readable message so clients can display it directly.
type HTTPErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	envelope := EnsureEnvelope(err)
	if r != nil {
		var gerr *ailink.GenerateError
		if stderrors.As(err, &gerr) {
			envelope = FromGenerateError(r.Context(), gerr)
		}
	}
	RespondWithEnvelope(w, r, envelope)
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Error:     envelope.Message,
		Code:      envelope.Code,
		Details:   ResponseDetails(envelope),
		RequestID: envelope.CorrelationID,
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Details {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
}
