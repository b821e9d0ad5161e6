package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Queue job statuses. A retrying job goes back to "queued" with a future
// RunAt; "completed" and "failed" are terminal.
const (
	JobStatusQueued    = "queued"
	JobStatusActive    = "active"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// QueueJob is one durable unit of background work. Rows double as the
// status record the polling endpoint reads, so completed and failed jobs
// are retained for a while before pruning.
type QueueJob struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind            string         `gorm:"type:varchar(40);not null;index:idx_queue_claim,priority:1" json:"kind"`
	Status          string         `gorm:"type:varchar(20);not null;index:idx_queue_claim,priority:2" json:"status"`
	OwnerID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	SecondaryID     *uuid.UUID     `gorm:"type:uuid" json:"secondary_id,omitempty"`
	InvalidateCache bool           `json:"invalidate_cache"`
	Priority        int            `json:"priority"`
	Attempts        int            `json:"attempts"`
	MaxAttempts     int            `json:"max_attempts"`
	Progress        int            `json:"progress"`
	RunAt           time.Time      `gorm:"index" json:"run_at"`
	Result          datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	LastError       string         `gorm:"type:text" json:"last_error,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (j *QueueJob) TableName() string {
	return "queue_jobs"
}

// Terminal reports whether the job can no longer change state.
func (j *QueueJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
