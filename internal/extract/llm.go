package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Completer answers a single prompt with free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ChatClient calls an OpenAI compatible chat completions endpoint. Calls are
// not retried.
type ChatClient struct {
	httpClient *resty.Client
	model      string
}

// NewChatClient creates a client for baseURL (e.g. https://api.openai.com/v1).
func NewChatClient(baseURL, apiKey, model string, timeout time.Duration) *ChatClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ChatClient{
		httpClient: client,
		model:      model,
	}
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	request := chatRequest{
		Model:               c.model,
		Messages:            []chatMessage{{Role: "user", Content: prompt}},
		MaxCompletionTokens: 600,
	}

	var response chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if response.Error != nil && response.Error.Message != "" {
			msg = response.Error.Message
		}
		return "", fmt.Errorf("chat completion failed (status %d): %s", resp.StatusCode(), msg)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	choice := response.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content, nil
	}
	return choice.Text, nil
}
