// Package cache implements the freshness policy and the background expiry
// sweep for the derived artifact caches (embeddings, scores, comparisons).
package cache

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ardiansyah/talent-match/internal/config"
)

// Kind identifies one derived artifact family for TTL lookup.
type Kind string

const (
	KindEmbedding  Kind = "embedding"
	KindScore      Kind = "score"
	KindComparison Kind = "comparison"
)

// Artifact is the minimal view the freshness policy needs of a cached row.
// All artifact models implement it.
type Artifact interface {
	GeneratedTime() time.Time
	// Placeholder reports an empty row created at entity creation or by
	// an invalidating reset. Placeholder rows are never fresh, even
	// though resets bump the generation timestamp.
	Placeholder() bool
}

// Policy decides cache hit vs miss. It does no I/O; the clock is injected
// so TTL behavior is testable.
type Policy struct {
	ttls  map[Kind]time.Duration
	clock clock.Clock
}

func NewPolicy(cfg *config.CacheConfig, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.New()
	}
	return &Policy{
		ttls: map[Kind]time.Duration{
			KindEmbedding:  cfg.EmbeddingTTL,
			KindScore:      cfg.ScoreTTL,
			KindComparison: cfg.ComparisonTTL,
		},
		clock: clk,
	}
}

// Fresh reports whether the artifact can be served from cache. Absent and
// placeholder artifacts are stale; otherwise the artifact is fresh iff
// now - generatedAt < TTL(kind).
func (p *Policy) Fresh(a Artifact, kind Kind) bool {
	if a == nil || a.Placeholder() {
		return false
	}
	ttl, ok := p.ttls[kind]
	if !ok {
		return false
	}
	return p.clock.Now().Sub(a.GeneratedTime()) < ttl
}

// TTL returns the freshness window for a kind, zero if unknown.
func (p *Policy) TTL(kind Kind) time.Duration {
	return p.ttls[kind]
}
