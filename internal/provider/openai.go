// Package provider implements the language-model and image-captioning
// collaborators.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel     = "gpt-4"
	defaultMaxTokens = 256
	defaultTimeout   = 120 * time.Second
)

// Generator produces free-text answers from assembled prompts using the
// OpenAI chat-completions API.
type Generator struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

type GeneratorConfig struct {
	APIKey     string
	APIBase    string // optional, for OpenAI-compatible endpoints
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &Generator{
		api:       openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// Generate runs one completion for the prompt. The call carries a bounded
// timeout so a hung collaborator cannot block a room indefinitely.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no completion response from API")
	}

	g.logger.Debug("completion finished",
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}
