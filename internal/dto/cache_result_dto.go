package dto

import "github.com/google/uuid"

// CacheResult is the dispatcher's answer: either fresh cached data, or the
// ID of the background job that will produce it.
type CacheResult struct {
	Cached bool      `json:"cached"`
	Data   any       `json:"data,omitempty"`
	JobID  uuid.UUID `json:"job_id,omitzero"`
}
