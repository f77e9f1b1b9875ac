package driver

import (
	"context"

	"github.com/namelens/genproxy/internal/ailink/content"
)

// Driver defines the interface for text generation providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "anthropic").
	Name() string
	// Configured reports whether the driver holds a usable credential.
	Configured() bool
}

// Usage contains token usage statistics.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model     string
	Messages  []content.Message
	MaxTokens int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content    []content.ContentBlock
	StopReason string
	Usage      *Usage
}

// Text returns the text of the first content block, and false when the
// response carries no text block.
func (r *Response) Text() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, block := range r.Content {
		if block.Type == content.ContentTypeText {
			return block.Text, true
		}
	}
	return "", false
}
