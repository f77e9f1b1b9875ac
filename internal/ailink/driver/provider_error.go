package driver

import "fmt"

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Message holds the provider's own error message when its body could be
// parsed, and is empty otherwise. RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Type        string
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// FormatError is returned when a provider answers 2xx with a body that does
// not carry the expected fields.
type FormatError struct {
	Provider string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s returned an unexpected response format: %s", e.Provider, e.Reason)
}
