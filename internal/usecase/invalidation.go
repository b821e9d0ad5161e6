package usecase

// Invalidation tells an entity-update flow which derived caches the change
// makes stale.
type Invalidation int

const (
	// InvalidateNone: superficial change, caches stay as they are.
	InvalidateNone Invalidation = iota
	// InvalidateScore: resets the score and deletes comparisons, the
	// embedding is still accurate.
	InvalidateScore
	// InvalidateEmbedding: resets embedding and score and deletes
	// comparisons. Scores depend on the embedding, so they go together.
	InvalidateEmbedding
)

func (i Invalidation) String() string {
	switch i {
	case InvalidateScore:
		return "score"
	case InvalidateEmbedding:
		return "embedding"
	default:
		return "none"
	}
}

// Resume fields whose change makes the embedding stale: the content the
// vectors are computed from.
var resumeEmbeddingFields = map[string]bool{
	"skills":          true,
	"work_experience": true,
	"certifications":  true,
	"summary":         true,
}

// Resume fields that feed scoring but not the embedding. Contact details
// like phone and email are deliberately absent: changing them invalidates
// nothing.
var resumeScoreFields = map[string]bool{
	"first_name":   true,
	"last_name":    true,
	"address":      true,
	"social_media": true,
}

// Posting fields whose change makes the posting embedding stale.
var postingEmbeddingFields = map[string]bool{
	"description":  true,
	"requirements": true,
	"skills":       true,
}

// Posting fields that affect comparisons only.
var postingScoreFields = map[string]bool{
	"title":        true,
	"location":     true,
	"company_name": true,
	"salary_min":   true,
	"salary_max":   true,
}

// ClassifyResumeUpdate inspects the updated column set and returns the
// strongest invalidation any changed field requires.
func ClassifyResumeUpdate(fields map[string]any) Invalidation {
	return classifyUpdate(fields, resumeEmbeddingFields, resumeScoreFields)
}

// ClassifyJobPostingUpdate does the same for job postings; the "score"
// level maps to comparison invalidation since postings have no score
// artifact of their own.
func ClassifyJobPostingUpdate(fields map[string]any) Invalidation {
	return classifyUpdate(fields, postingEmbeddingFields, postingScoreFields)
}

func classifyUpdate(fields map[string]any, embeddingFields, scoreFields map[string]bool) Invalidation {
	result := InvalidateNone
	for name := range fields {
		if embeddingFields[name] {
			return InvalidateEmbedding
		}
		if scoreFields[name] {
			result = InvalidateScore
		}
	}
	return result
}
