// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/paper-triage/internal/httputil"
)

// openAIAPIBase is the chat-completions endpoint. Package-level var for
// test substitution.
var openAIAPIBase = "https://api.openai.com/v1/chat/completions"

// DefaultModel is the model used when the configuration names none.
const DefaultModel = "gpt-4o-mini-2024-07-18"

// Backend abstracts the chat API so tests can supply a mock. Complete sends
// one user message and returns the assistant's reply text.
type Backend interface {
	Complete(ctx context.Context, message string) (string, error)
}

// OpenAIBackend calls the OpenAI chat-completions API with temperature zero
// so identical inputs classify identically across runs.
type OpenAIBackend struct {
	APIKey     string
	Model      string
	Client     *http.Client
	NumRetries int
	RetryDelay time.Duration
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// chatChoice is one completion alternative; only the first is used.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Complete sends message as a single user turn and returns the reply text.
// Transport errors and non-2xx responses are retried with a fixed delay up
// to the attempt budget.
func (b *OpenAIBackend) Complete(ctx context.Context, message string) (string, error) {
	model := b.Model
	if model == "" {
		model = DefaultModel
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: message}},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIAPIBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.NumRetries, b.RetryDelay)
	if err != nil {
		return "", fmt.Errorf("chat API request: %w", err)
	}
	defer resp.Body.Close()

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return cResp.Choices[0].Message.Content, nil
}
