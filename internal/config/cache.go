package config

import (
	"sync"
	"time"
)

// CacheConfig holds the freshness windows for the derived caches and the
// hard-expiry ages the background sweeper enforces.
//
// Embeddings are expensive and stable, so they get the longest window.
// Scores are cheap and sensitive to profile edits, so they get the
// shortest. Hard expiry is defense in depth: rows the application forgot
// to refresh or delete are removed regardless.
type CacheConfig struct {
	EmbeddingTTL  time.Duration
	ScoreTTL      time.Duration
	ComparisonTTL time.Duration

	EmbeddingExpiry  time.Duration
	ScoreExpiry      time.Duration
	ComparisonExpiry time.Duration

	SweepInterval time.Duration
}

var (
	cacheConfig *CacheConfig
	cacheOnce   sync.Once
)

func LoadCacheConfig() *CacheConfig {
	cacheOnce.Do(func() {
		cacheConfig = &CacheConfig{
			EmbeddingTTL:     envDuration("CACHE_EMBEDDING_TTL", 30*24*time.Hour),
			ScoreTTL:         envDuration("CACHE_SCORE_TTL", 7*24*time.Hour),
			ComparisonTTL:    envDuration("CACHE_COMPARISON_TTL", 30*24*time.Hour),
			EmbeddingExpiry:  envDuration("CACHE_EMBEDDING_EXPIRY", 90*24*time.Hour),
			ScoreExpiry:      envDuration("CACHE_SCORE_EXPIRY", 30*24*time.Hour),
			ComparisonExpiry: envDuration("CACHE_COMPARISON_EXPIRY", 30*24*time.Hour),
			SweepInterval:    envDuration("CACHE_SWEEP_INTERVAL", time.Hour),
		}
	})
	return cacheConfig
}
