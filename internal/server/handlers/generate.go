package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/namelens/genproxy/internal/ailink"
	apperrors "github.com/namelens/genproxy/internal/errors"
)

const (
	// DefaultMaxPromptChars bounds the prompt length in Unicode code points.
	DefaultMaxPromptChars = 50000

	// DefaultMaxBodyBytes bounds the request body read from clients.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the successful POST /api/generate body.
type GenerateResponse struct {
	Text string `json:"text"`
}

// GenerateHandler validates prompts and relays them to a TextGenerator.
type GenerateHandler struct {
	generator      TextGenerator
	maxPromptChars int
	maxBodyBytes   int64
	validate       *validator.Validate
}

// NewGenerateHandler returns a handler; non-positive limits fall back to defaults.
func NewGenerateHandler(generator TextGenerator, maxPromptChars int, maxBodyBytes int64) *GenerateHandler {
	if maxPromptChars <= 0 {
		maxPromptChars = DefaultMaxPromptChars
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &GenerateHandler{
		generator:      generator,
		maxPromptChars: maxPromptChars,
		maxBodyBytes:   maxBodyBytes,
		validate:       validator.New(),
	}
}

// ServeHTTP handles POST /api/generate. A missing credential is reported
// before the body is examined.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil || !h.generator.Configured() {
		respondWithError(w, r, ailink.ConfigMissingError())
		return
	}

	prompt, err := h.decodePrompt(w, r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	text, err := h.generator.Generate(r.Context(), prompt)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(GenerateResponse{Text: text})
}

func (h *GenerateHandler) decodePrompt(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return "", apperrors.WrapInvalidInput(r.Context(), err,
				fmt.Sprintf("Request body exceeds %d bytes", h.maxBodyBytes))
		}
		return "", apperrors.WrapInvalidInput(r.Context(), err, "Request body must be a JSON object with a string prompt")
	}

	if err := h.validate.Var(req.Prompt, "required"); err != nil {
		return "", apperrors.WrapInvalidInput(r.Context(), err, "Prompt is required")
	}
	// validator counts runes for string length.
	if err := h.validate.Var(req.Prompt, fmt.Sprintf("max=%d", h.maxPromptChars)); err != nil {
		return "", apperrors.WrapInvalidInput(r.Context(), err,
			fmt.Sprintf("Prompt exceeds maximum length of %d characters", h.maxPromptChars))
	}

	return req.Prompt, nil
}
