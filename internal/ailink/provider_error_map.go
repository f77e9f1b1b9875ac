package ailink

import (
	"errors"
	"net/http"
	"strings"

	"github.com/namelens/genproxy/internal/ailink/driver"
)

const (
	msgUpstreamRateLimited = "Upstream API rate limit exceeded, please try again later."
	msgUpstreamFailed      = "Failed to generate text"
	msgUnexpectedFormat    = "Unexpected response format from generation service"
	msgUnreachable         = "Failed to reach generation service"
	msgConfigMissing       = "Server configuration error: generation API key is not set"
)

func mapProviderError(err error) *GenerateError {
	if err == nil {
		return nil
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := strings.TrimSpace(perr.Type)
		switch {
		case status == http.StatusTooManyRequests:
			return &GenerateError{Code: CodeUpstreamRateLimited, Message: msgUpstreamRateLimited, StatusCode: http.StatusTooManyRequests, Details: details}
		case status < 100 || status > 599:
			return &GenerateError{Code: CodeUpstreamError, Message: msgUpstreamFailed, StatusCode: http.StatusBadGateway, Details: details}
		default:
			message := strings.TrimSpace(perr.Message)
			if message == "" {
				message = msgUpstreamFailed
			}
			return &GenerateError{Code: CodeUpstreamError, Message: message, StatusCode: status, Details: details}
		}
	}

	var ferr *driver.FormatError
	if errors.As(err, &ferr) {
		return &GenerateError{Code: CodeInternal, Message: msgUnexpectedFormat, StatusCode: http.StatusInternalServerError, Details: ferr.Reason}
	}

	return &GenerateError{Code: CodeInternal, Message: msgUnreachable, StatusCode: http.StatusInternalServerError, Details: err.Error()}
}
