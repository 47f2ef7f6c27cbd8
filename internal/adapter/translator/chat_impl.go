package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/user/lesson-harvester/internal/repository"
)

const chatCompletionsPath = "/v1/chat/completions"

// Options configures a ChatTranslator.
type Options struct {
	// Endpoint is the base URL of an OpenAI-compatible server (llama.cpp, Ollama, vLLM).
	Endpoint string
	Model    string
	Language string
	APIKey   string
	Timeout  time.Duration
	Retries  int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatTranslator fills translated_text through a chat-completions endpoint.
type ChatTranslator struct {
	client   *resty.Client
	model    string
	language string
}

var _ repository.Translator = (*ChatTranslator)(nil)

func NewChatTranslator(opts Options) (*ChatTranslator, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("translation endpoint is required")
	}
	if opts.Language == "" {
		return nil, errors.New("translation language is required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.Endpoint, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}

	return &ChatTranslator{client: client, model: opts.Model, language: opts.Language}, nil
}

func (t *ChatTranslator) Translate(ctx context.Context, text string) (string, error) {
	req := chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(
				"You translate classroom lesson text into %s. Reply with the translation only, keeping the meaning and tone for young students.",
				t.language)},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	}

	var (
		result  chatResponse
		failure chatError
	)
	res, err := t.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post(chatCompletionsPath)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	if res.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = res.Status()
		}
		return "", fmt.Errorf("translation endpoint returned %d: %s", res.StatusCode(), msg)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("translation endpoint returned no choices")
	}

	translated := strings.TrimSpace(result.Choices[0].Message.Content)
	if translated == "" {
		return "", errors.New("translation endpoint returned empty text")
	}
	return translated, nil
}
