package anthropic

import (
	"github.com/namelens/genproxy/internal/ailink/content"
	"github.com/namelens/genproxy/internal/ailink/driver"
)

type messagesResponse struct {
	Content    []responseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *usage          `json:"usage,omitempty"`
}

// responseBlock keeps Text as a pointer so a missing field is
// distinguishable from an empty string.
type responseBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorResponse struct {
	Type  string       `json:"type"`
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// toDriverResponse requires content[0].text; its absence is a format error.
func toDriverResponse(resp *messagesResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Content) == 0 {
		return nil, &driver.FormatError{Provider: providerName, Reason: "missing content"}
	}
	first := resp.Content[0]
	if first.Text == nil {
		return nil, &driver.FormatError{Provider: providerName, Reason: "missing content[0].text"}
	}

	response := &driver.Response{
		Content:    []content.ContentBlock{{Type: content.ContentTypeText, Text: *first.Text}},
		StopReason: resp.StopReason,
	}
	if resp.Usage != nil {
		response.Usage = &driver.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}
	return response, nil
}
