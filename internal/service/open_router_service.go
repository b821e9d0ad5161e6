package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/ardiansyah/talent-match/internal/config"
)

type OpenRouterServiceInterface interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenRouterService calls the OpenRouter chat-completions API. It backs
// the score computation, keeping the expensive LLM call off the Gemini
// quota used for embeddings.
type OpenRouterService struct {
	client *resty.Client
	model  string
	log    *logrus.Entry
}

func NewOpenRouterService() *OpenRouterService {
	cfg := config.LoadOpenRouterConfig()

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &OpenRouterService{
		client: client,
		model:  cfg.Model,
		log:    logrus.WithField("component", "openrouter"),
	}
}

// Complete sends one user prompt and returns the assistant message text.
func (s *OpenRouterService) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode(), resp.String())
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content").String()
	if content == "" {
		return "", fmt.Errorf("openrouter returned no choices")
	}

	return content, nil
}
