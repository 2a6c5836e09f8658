// internal/genai/backend.go

// Package genai talks to the chat-completion backend that powers the
// free-form consultation flow.
package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"career-advisor/internal/common/config"
	"career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"
)

// Mode selects the system prompt.
type Mode string

const (
	// ModeChat answers one consultation turn conversationally.
	ModeChat Mode = "chat"
	// ModeRecommend asks for exactly three ranked suggestions drawn
	// from the catalog digest.
	ModeRecommend Mode = "recommend"
)

// Backend produces assistant replies for a consultation transcript.
type Backend interface {
	Respond(ctx context.Context, transcript []models.Turn, mode Mode) (string, error)
	Available() bool
}

// CatalogDigest supplies the one-line-per-career summary embedded in
// system prompts.
type CatalogDigest interface {
	Digest() string
}

// OpenAIBackend is the production Backend.
type OpenAIBackend struct {
	client  *openai.Client
	cfg     config.OpenAIConfig
	catalog CatalogDigest
	logger  logger.Logger
}

func NewOpenAIBackend(cfg config.OpenAIConfig, catalog CatalogDigest, log logger.Logger) *OpenAIBackend {
	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	return &OpenAIBackend{
		client:  client,
		cfg:     cfg,
		catalog: catalog,
		logger:  log,
	}
}

func (b *OpenAIBackend) Available() bool {
	return b.client != nil
}

func (b *OpenAIBackend) Respond(ctx context.Context, transcript []models.Turn, mode Mode) (string, error) {
	if b.client == nil {
		return "", errors.NewGenerationBackendError(fmt.Errorf("no api key configured"))
	}

	reqCtx, cancel := context.WithTimeout(ctx, b.cfg.GetTimeout())
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: b.systemPrompt(mode),
	})
	for _, turn := range transcript {
		role := openai.ChatMessageRoleUser
		if turn.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	start := time.Now()
	resp, err := b.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       b.cfg.Model,
		Messages:    msgs,
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
	})
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		b.logger.Warn("Chat completion failed", map[string]interface{}{
			"mode":  string(mode),
			"error": err.Error(),
		})
		return "", errors.NewGenerationBackendError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewGenerationBackendError(fmt.Errorf("empty completion"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *OpenAIBackend) systemPrompt(mode Mode) string {
	digest := b.catalog.Digest()
	switch mode {
	case ModeRecommend:
		return "You are a career advisor. Based on the conversation so far, " +
			"recommend exactly three careers, ranked, each with a one-sentence reason. " +
			"Only recommend careers from this catalog:\n" + digest
	default:
		return "You are a friendly career advisor. Ask clarifying questions about the " +
			"user's interests, skills and constraints. Keep answers short. " +
			"Careers you may discuss:\n" + digest
	}
}
