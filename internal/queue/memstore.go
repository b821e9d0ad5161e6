package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ardiansyah/talent-match/internal/model"
)

// MemStore is an in-memory Store with the same claim and retention
// semantics as GormStore. It backs tests and database-free local runs.
type MemStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.QueueJob
	seq  map[uuid.UUID]int
	next int
}

func NewMemStore() *MemStore {
	return &MemStore{
		jobs: make(map[uuid.UUID]*model.QueueJob),
		seq:  make(map[uuid.UUID]int),
	}
}

func (s *MemStore) Create(_ context.Context, job *model.QueueJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[cp.ID] = &cp
	s.seq[cp.ID] = s.next
	s.next++
	return nil
}

func (s *MemStore) ClaimNext(_ context.Context, kinds []string, now time.Time) (*model.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	var runnable []*model.QueueJob
	for _, j := range s.jobs {
		if j.Status == model.JobStatusQueued && kindSet[j.Kind] && !j.RunAt.After(now) {
			runnable = append(runnable, j)
		}
	}
	if len(runnable) == 0 {
		return nil, nil
	}

	sort.Slice(runnable, func(i, k int) bool {
		a, b := runnable[i], runnable[k]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return s.seq[a.ID] < s.seq[b.ID]
	})

	j := runnable[0]
	j.Status = model.JobStatusActive
	started := now
	j.StartedAt = &started
	j.UpdatedAt = now

	cp := *j
	return &cp, nil
}

func (s *MemStore) Get(_ context.Context, id uuid.UUID) (*model.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *MemStore) SetProgress(_ context.Context, id uuid.UUID, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok {
		j.Progress = progress
	}
	return nil
}

func (s *MemStore) MarkCompleted(_ context.Context, id uuid.UUID, result []byte, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status = model.JobStatusCompleted
	j.Progress = 100
	j.Result = result
	finished := now
	j.FinishedAt = &finished
	j.UpdatedAt = now
	return nil
}

func (s *MemStore) MarkRetry(_ context.Context, id uuid.UUID, attempts int, runAt time.Time, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status = model.JobStatusQueued
	j.Attempts = attempts
	j.RunAt = runAt
	j.LastError = lastError
	return nil
}

func (s *MemStore) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastError string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status = model.JobStatusFailed
	j.Attempts = attempts
	j.LastError = lastError
	finished := now
	j.FinishedAt = &finished
	j.UpdatedAt = now
	return nil
}

func (s *MemStore) RequeueStalled(_ context.Context, cutoff, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var requeued int64
	for _, j := range s.jobs {
		if j.Status == model.JobStatusActive && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			j.Status = model.JobStatusQueued
			j.StartedAt = nil
			j.RunAt = now
			j.UpdatedAt = now
			requeued++
		}
	}
	return requeued, nil
}

func (s *MemStore) Prune(_ context.Context, now time.Time, policy RetentionPolicy) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int64
	var completed []*model.QueueJob
	for id, j := range s.jobs {
		switch j.Status {
		case model.JobStatusCompleted:
			if j.FinishedAt != nil && j.FinishedAt.Before(now.Add(-policy.CompletedAge)) {
				delete(s.jobs, id)
				delete(s.seq, id)
				pruned++
				continue
			}
			completed = append(completed, j)
		case model.JobStatusFailed:
			if j.FinishedAt != nil && j.FinishedAt.Before(now.Add(-policy.FailedAge)) {
				delete(s.jobs, id)
				delete(s.seq, id)
				pruned++
			}
		}
	}

	if policy.CompletedMax > 0 && len(completed) > policy.CompletedMax {
		sort.Slice(completed, func(i, k int) bool {
			return completed[i].FinishedAt.After(*completed[k].FinishedAt)
		})
		for _, j := range completed[policy.CompletedMax:] {
			delete(s.jobs, j.ID)
			delete(s.seq, j.ID)
			pruned++
		}
	}

	return pruned, nil
}
