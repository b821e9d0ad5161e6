package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ardiansyah/talent-match/internal/model"
)

type JobStatusDTO struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

func NewJobStatusDTO(job *model.QueueJob) JobStatusDTO {
	return JobStatusDTO{
		ID:          job.ID,
		Kind:        job.Kind,
		Status:      job.Status,
		Progress:    job.Progress,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		Result:      json.RawMessage(job.Result),
		Error:       job.LastError,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
	}
}
