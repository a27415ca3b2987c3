package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

var ErrEmptyCompletion = errors.New("empty response from language model")

// WritePrompt is a single-shot writing task for the content tools
type WritePrompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Writer produces copy (captions, hashtags, scripts) outside the chat loop
type Writer interface {
	Write(ctx context.Context, p WritePrompt) (string, error)
}

// OpenAIWriter runs non-streaming completions against an OpenAI-compatible endpoint
type OpenAIWriter struct {
	client *openai.Client
	model  string
}

func NewOpenAIWriter(cfg OpenAIConfig) *OpenAIWriter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &OpenAIWriter{client: openai.NewClientWithConfig(config), model: cfg.Model}
}

func (w *OpenAIWriter) Write(ctx context.Context, p WritePrompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    w.model,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: p.User}},
	}
	if p.System != "" {
		req.Messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		}}, req.Messages...)
	}
	if p.MaxTokens > 0 {
		req.MaxTokens = p.MaxTokens
	}
	if p.Temperature > 0 {
		req.Temperature = &p.Temperature
	}

	resp, err := w.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
