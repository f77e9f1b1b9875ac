package ailink

import "net/http"

// Error codes returned by Generate.
const (
	CodeConfigMissing       = "CONFIG_MISSING"
	CodeUpstreamRateLimited = "UPSTREAM_RATE_LIMITED"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

// GenerateError captures a generation failure in caller-facing terms.
//
// Message is safe to show to clients. Details carries internal context that
// callers only expose in development mode.
type GenerateError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Details    string `json:"details,omitempty"`
}

func (e *GenerateError) Error() string {
	if e == nil {
		return "generation failed"
	}
	if e.Details != "" {
		return e.Code + ": " + e.Message + ": " + e.Details
	}
	return e.Code + ": " + e.Message
}

// HTTPStatus returns the status the error maps to, defaulting to 500.
func (e *GenerateError) HTTPStatus() int {
	if e == nil || e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// ConfigMissingError reports that no upstream credential is configured.
func ConfigMissingError() *GenerateError {
	return &GenerateError{Code: CodeConfigMissing, Message: msgConfigMissing, StatusCode: http.StatusInternalServerError}
}
