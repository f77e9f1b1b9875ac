package anthropic

import (
	"fmt"
	"strings"

	"github.com/namelens/genproxy/internal/ailink/content"
	"github.com/namelens/genproxy/internal/ailink/driver"
)

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildMessagesRequest(req *driver.Request) (*messagesRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if req.MaxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	messages := make([]message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		text, err := flattenText(msg.Content)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message{Role: msg.Role, Content: text})
	}

	return &messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  messages,
	}, nil
}

func flattenText(blocks []content.ContentBlock) (string, error) {
	var b strings.Builder
	for _, block := range blocks {
		if block.Type != content.ContentTypeText {
			return "", fmt.Errorf("unsupported content type: %s", block.Type)
		}
		b.WriteString(block.Text)
	}
	return b.String(), nil
}
