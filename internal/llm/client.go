package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrBlocked is returned when the provider refuses to answer a prompt.
	ErrBlocked = errors.New("response blocked by provider")
	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("empty response")
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent returns free text for the prompt.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON asks for a JSON body and strips any code fence around it.
	// The body is not parsed; callers validate it against their schema.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModel(tier ModelTier) string
	Close() error
}

// NewClient creates the client for config.Provider.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
	logger *slog.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
		logger: slog.Default().With(slog.String("component", "llm")),
	}, nil
}

// GenerateContent implements Client.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, "")
}

// GenerateJSON implements Client.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel implements Client.
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close implements Client.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, tier ModelTier, mimeType string) (string, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(name)
	model.SetTemperature(c.config.Temperature)
	if limit := c.config.MaxOutputTokens[tier]; limit > 0 {
		model.SetMaxOutputTokens(limit)
	}
	model.ResponseMIMEType = mimeType

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate content: %w", name, err)
	}

	attrs := []any{slog.String("model", name), slog.Duration("elapsed", time.Since(start))}
	if usage := resp.UsageMetadata; usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", int(usage.PromptTokenCount)),
			slog.Int("output_tokens", int(usage.CandidatesTokenCount)))
	}
	c.logger.Debug("generation finished", attrs...)

	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: %s", ErrBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
