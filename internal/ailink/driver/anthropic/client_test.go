package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/genproxy/internal/ailink/content"
	"github.com/namelens/genproxy/internal/ailink/driver"
)

func testRequest(prompt string) *driver.Request {
	return &driver.Request{
		Model:     "test-model",
		MaxTokens: 2000,
		Messages:  []content.Message{content.UserText(prompt)},
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "   ")
	require.False(t, client.Configured())

	_, err := client.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	client := NewClient("", "k")
	assert.Equal(t, DefaultBaseURL, client.BaseURL)
	assert.Equal(t, "anthropic", client.Name())
}

func TestClientSendsRequestAndParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, APIVersion, r.Header.Get("anthropic-version"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Empty(t, r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "test-model", payload["model"])
		require.Equal(t, float64(2000), payload["max_tokens"])

		messages, ok := payload["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]any)
		require.Equal(t, "user", msg["role"])
		require.Equal(t, "write a haiku", msg["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"  leaves fall\n"}],"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":6}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), testRequest("write a haiku"))
	require.NoError(t, err)

	text, ok := resp.Text()
	require.True(t, ok)
	assert.Equal(t, "  leaves fall\n", text, "text must be returned verbatim")
	assert.Equal(t, "end_turn", resp.StopReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 6, resp.Usage.OutputTokens)
}

func TestClientParsesProviderErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"prompt is too long"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)

	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Equal(t, "invalid_request_error", perr.Type)
	assert.Equal(t, "prompt is too long", perr.Message)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClientLeavesMessageEmptyForUnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), testRequest("hi"))

	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Empty(t, perr.Message)
	assert.Equal(t, "<html>bad gateway</html>", string(perr.RawResponse))
}

func TestClientReturnsFormatErrorWhenTextMissing(t *testing.T) {
	cases := map[string]string{
		"no content":    `{"content":[]}`,
		"no text field": `{"content":[{"type":"tool_use","id":"x"}]}`,
		"not json":      `ok`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key")
			client.HTTPClient = server.Client()

			_, err := client.Complete(context.Background(), testRequest("hi"))

			var ferr *driver.FormatError
			require.True(t, errors.As(err, &ferr), "expected FormatError, got %v", err)
		})
	}
}

func TestClientWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "test-key")

	_, err := client.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")

	var perr *driver.ProviderError
	assert.False(t, errors.As(err, &perr))
}

func TestBuildMessagesRequestValidates(t *testing.T) {
	_, err := buildMessagesRequest(nil)
	require.Error(t, err)

	_, err = buildMessagesRequest(&driver.Request{MaxTokens: 10, Messages: []content.Message{content.UserText("x")}})
	require.ErrorContains(t, err, "model")

	_, err = buildMessagesRequest(&driver.Request{Model: "m", Messages: []content.Message{content.UserText("x")}})
	require.ErrorContains(t, err, "max_tokens")

	_, err = buildMessagesRequest(&driver.Request{Model: "m", MaxTokens: 10})
	require.ErrorContains(t, err, "messages")
}
