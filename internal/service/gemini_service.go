package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/ardiansyah/talent-match/internal/config"
)

type GeminiServiceInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateContent(ctx context.Context, prompt string) (string, error)
	EmbeddingModel() string
}

// GeminiService wraps the genai client with bounded retries, exponential
// backoff with jitter, and a consecutive-error circuit breaker.
type GeminiService struct {
	client            *genai.Client
	embeddingModel    string
	contentModel      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	// consecutiveErrors feeds the circuit breaker. Worker pools share one
	// client, so the counter is updated atomically.
	consecutiveErrors atomic.Int64
	circuitBreakerMax int
	log               *logrus.Entry
}

func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	cfg := config.LoadGeminiConfig()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiService{
		client:            client,
		embeddingModel:    cfg.EmbeddingModel,
		contentModel:      cfg.ContentModel,
		maxRetries:        3,
		baseDelay:         time.Second,
		maxDelay:          90 * time.Second,
		circuitBreakerMax: 5,
		log:               logrus.WithField("component", "gemini"),
	}, nil
}

func (s *GeminiService) EmbeddingModel() string {
	return s.embeddingModel
}

// GenerateEmbedding returns the embedding vector for one text section.
func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(text) > 10000 {
		s.log.WithField("length", len(text)).Warn("embedding text truncated")
		text = text[:10000]
	}

	content := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var values []float32
	err := s.withRetry(ctx, "EmbedContent", func(ctx context.Context) error {
		resp, err := s.client.Models.EmbedContent(ctx, s.embeddingModel, content, nil)
		if err != nil {
			return err
		}
		values, err = embeddingValues(resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// GenerateContent runs one prompt through the content model and returns
// the raw response text.
func (s *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	var text string
	err := s.withRetry(ctx, "GenerateContent", func(ctx context.Context) error {
		resp, err := s.client.Models.GenerateContent(ctx, s.contentModel, genai.Text(prompt), genConfig)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return fmt.Errorf("no candidates in response")
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("empty response text")
		}
		return nil
	})
	return text, err
}

func (s *GeminiService) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	if n := s.consecutiveErrors.Load(); n >= int64(s.circuitBreakerMax) {
		return fmt.Errorf("circuit breaker open: %d consecutive errors", n)
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoff(attempt)
			s.log.WithFields(logrus.Fields{
				"op":      op,
				"attempt": attempt,
				"delay":   delay,
			}).Warn("retrying after error")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s canceled during retry: %w", op, ctx.Err())
			}
		}

		err := fn(ctx)
		if err == nil {
			s.consecutiveErrors.Store(0)
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			s.consecutiveErrors.Add(1)
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.consecutiveErrors.Add(1)
	return fmt.Errorf("%s: max retries (%d) exceeded: %w", op, s.maxRetries, lastErr)
}

func (s *GeminiService) backoff(attempt int) time.Duration {
	delay := s.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.maxDelay {
		delay = s.maxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "context deadline exceeded") {
		return false
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "EOF")
}

func embeddingValues(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, v := range values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, v)
		}
	}
	return values, nil
}
