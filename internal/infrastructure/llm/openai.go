package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"AgenticDigest/internal/config"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/provider"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 300
	defaultTimeout   = 60 * time.Second
)

// OpenAIProvider implements provider.Provider backed by the chat
// completions API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *slog.Logger
}

var _ provider.Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the live provider. A missing API key is reported
// as provider.ErrMissingCredential.
func NewOpenAIProvider(cfg config.OpenAIConfig, log *slog.Logger) (*OpenAIProvider, error) {
	key := CleanAPIKey(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", provider.ErrMissingCredential)
	}
	if log == nil {
		log = logging.Discard()
	}

	p := &OpenAIProvider{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    log,
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if p.maxTokens <= 0 {
		p.maxTokens = defaultMaxTokens
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(p.timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	p.client = openai.NewClient(opts...)
	return p, nil
}

// Name identifies the provider inside the router.
func (p *OpenAIProvider) Name() string {
	return provider.OpenAIName
}

// Complete sends prompt as the user message with a category-specific
// system instruction and returns the trimmed reply.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, mode provider.Mode, category string) (string, error) {
	started := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(category)),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(p.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			p.logger.Error("openai request failed", "mode", mode, "status", apiErr.StatusCode, "error", err)
		} else {
			p.logger.Error("openai request failed", "mode", mode, "error", err)
		}
		return "", fmt.Errorf("openai complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai complete: empty choices")
	}

	p.logger.Debug("openai completion",
		"mode", mode,
		"model", p.model,
		"duration", time.Since(started),
		"total_tokens", resp.Usage.TotalTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SystemPrompt is the instruction sent ahead of every prompt.
func SystemPrompt(category string) string {
	return fmt.Sprintf("You are a summarizer specializing in %s.", category)
}

// CleanAPIKey strips whitespace and stray straight or curly quotes that
// often sneak in from pasted .env values.
func CleanAPIKey(key string) string {
	key = strings.NewReplacer("\u201c", "", "\u201d", "", `"`, "").Replace(key)
	return strings.TrimSpace(key)
}
