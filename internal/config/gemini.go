package config

import (
	"os"
	"sync"
)

type GeminiConfig struct {
	APIKey         string
	EmbeddingModel string
	ContentModel   string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		embeddingModel := os.Getenv("GEMINI_EMBEDDING_MODEL")
		if embeddingModel == "" {
			embeddingModel = "gemini-embedding-001"
		}
		contentModel := os.Getenv("GEMINI_CONTENT_MODEL")
		if contentModel == "" {
			contentModel = "gemini-2.5-flash"
		}
		geminiConfig = &GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			EmbeddingModel: embeddingModel,
			ContentModel:   contentModel,
		}
	})
	return geminiConfig
}
