package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Job kind names. The queue, the workers and the dispatcher all agree on
// these strings; they are also what shows up on job status responses.
const (
	KindResumeEmbedding     = "resume-embedding"
	KindResumeScoring       = "resume-scoring"
	KindJobPostingEmbedding = "job-posting-embedding"
	KindResumeComparison    = "resume-comparison"
)

// KindConfig holds the per-kind queue settings.
type KindConfig struct {
	// Priority orders claims when several kinds share a poll cycle.
	// Lower value wins. Embeddings run before scores since scores read
	// the embedding that is being produced.
	Priority    int
	Concurrency int
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles on
	// each subsequent retry.
	BackoffBase time.Duration
	// Timeout bounds one compute invocation.
	Timeout time.Duration
}

// QueueConfig is the full queue/worker configuration, built once at startup
// and passed explicitly to the queue manager and worker pools.
type QueueConfig struct {
	Kinds        map[string]KindConfig
	PollInterval time.Duration

	// Retention for finished jobs: completed rows are kept briefly for
	// status lookups, failed rows longer for diagnosis.
	CompletedRetention time.Duration
	CompletedMax       int
	FailedRetention    time.Duration
	PruneInterval      time.Duration

	// StalledAfter is how long a job may sit active before the sweep
	// assumes its worker died and requeues it. It must exceed the longest
	// kind timeout or a slow-but-alive job gets claimed twice.
	StalledAfter         time.Duration
	StalledSweepInterval time.Duration
}

var (
	queueConfig *QueueConfig
	queueOnce   sync.Once
)

// LoadQueueConfig reads the queue settings from the environment. Worker
// concurrency is tunable per kind (QUEUE_EMBEDDING_CONCURRENCY etc.) with
// higher defaults in production.
func LoadQueueConfig() *QueueConfig {
	queueOnce.Do(func() {
		prod := LoadAppConfig().Env == "production"

		queueConfig = &QueueConfig{
			Kinds: map[string]KindConfig{
				KindResumeEmbedding: {
					Priority:    2,
					Concurrency: envInt("QUEUE_EMBEDDING_CONCURRENCY", pick(prod, 5, 2)),
					MaxAttempts: envInt("QUEUE_MAX_ATTEMPTS", 3),
					BackoffBase: envDuration("QUEUE_BACKOFF_BASE", 2*time.Second),
					Timeout:     envDuration("QUEUE_EMBEDDING_TIMEOUT", 30*time.Second),
				},
				KindResumeScoring: {
					Priority:    3,
					Concurrency: envInt("QUEUE_SCORING_CONCURRENCY", pick(prod, 3, 1)),
					MaxAttempts: envInt("QUEUE_MAX_ATTEMPTS", 3),
					BackoffBase: envDuration("QUEUE_BACKOFF_BASE", 2*time.Second),
					Timeout:     envDuration("QUEUE_SCORING_TIMEOUT", 60*time.Second),
				},
				KindJobPostingEmbedding: {
					Priority:    2,
					Concurrency: envInt("QUEUE_EMBEDDING_CONCURRENCY", pick(prod, 5, 2)),
					MaxAttempts: envInt("QUEUE_MAX_ATTEMPTS", 3),
					BackoffBase: envDuration("QUEUE_BACKOFF_BASE", 2*time.Second),
					Timeout:     envDuration("QUEUE_EMBEDDING_TIMEOUT", 30*time.Second),
				},
				KindResumeComparison: {
					Priority:    2,
					Concurrency: envInt("QUEUE_COMPARISON_CONCURRENCY", pick(prod, 4, 2)),
					MaxAttempts: envInt("QUEUE_MAX_ATTEMPTS", 3),
					BackoffBase: envDuration("QUEUE_BACKOFF_BASE", 2*time.Second),
					Timeout:     envDuration("QUEUE_COMPARISON_TIMEOUT", 60*time.Second),
				},
			},
			PollInterval:       envDuration("QUEUE_POLL_INTERVAL", time.Second),
			CompletedRetention: envDuration("QUEUE_COMPLETED_RETENTION", 24*time.Hour),
			CompletedMax:       envInt("QUEUE_COMPLETED_MAX", 100),
			FailedRetention:    envDuration("QUEUE_FAILED_RETENTION", 7*24*time.Hour),
			PruneInterval:      envDuration("QUEUE_PRUNE_INTERVAL", time.Hour),

			StalledAfter:         envDuration("QUEUE_STALLED_AFTER", 5*time.Minute),
			StalledSweepInterval: envDuration("QUEUE_STALLED_SWEEP_INTERVAL", time.Minute),
		}
	})
	return queueConfig
}

func pick(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
