// Package ai talks to the hosted language model used for generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fablecraft/backend/internal/infrastructure/config"
)

// Prompt is one single-turn request
type Prompt struct {
	System string
	User   string
	// JSON asks the model for an application/json reply
	JSON bool
}

// ErrEmptyReply is returned when the model produced no text
var ErrEmptyReply = errors.New("model returned an empty reply")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient completes prompts with the Gemini API
type GeminiClient struct {
	models      contentGenerator
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	retry       RetryConfig
	logger      *zap.Logger
}

// NewGeminiClient creates a client from the ai config section
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, logger), nil
}

func newGeminiClient(models contentGenerator, cfg config.AIConfig, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		retry.BackoffBase = cfg.BackoffBase
	}
	if cfg.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.MaxBackoff
	}
	return &GeminiClient{
		models:      models,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxOutputTokens),
		timeout:     cfg.Timeout,
		retry:       retry,
		logger:      logger.Named("ai"),
	}
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends the prompt and returns the reply text. Transient failures
// are retried; each attempt gets its own timeout.
func (c *GeminiClient) Complete(ctx context.Context, p Prompt) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if c.maxTokens > 0 {
		gc.MaxOutputTokens = c.maxTokens
	}
	if p.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	var (
		text     string
		attempts int
	)
	start := time.Now()
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		attempts++
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		resp, err := c.models.GenerateContent(callCtx, c.model, contents, gc)
		if err != nil {
			if attempts < c.retry.MaxAttempts && IsRetryable(err) {
				c.logger.Warn("Model call failed, retrying", zap.Int("attempt", attempts), zap.Error(err))
			}
			return err
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return ErrEmptyReply
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("model %s: %w", c.model, err)
	}

	c.logger.Debug("Model call completed",
		zap.String("model", c.model),
		zap.Int("attempts", attempts),
		zap.Duration("duration", time.Since(start)),
		zap.Int("reply_chars", len(text)),
	)
	return text, nil
}
