package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
)

func scoringKindConfig() config.KindConfig {
	return config.KindConfig{
		Priority:    3,
		Concurrency: 1,
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
		Timeout:     time.Minute,
	}
}

func claimJob(t *testing.T, store Store, kind string) *model.QueueJob {
	t.Helper()
	job, err := store.ClaimNext(context.Background(), []string{kind}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestBackoffDoubles(t *testing.T) {
	base := 2 * time.Second
	assert.Equal(t, 2*time.Second, Backoff(base, 1))
	assert.Equal(t, 4*time.Second, Backoff(base, 2))
	assert.Equal(t, 8*time.Second, Backoff(base, 3))
	assert.Equal(t, 2*time.Second, Backoff(base, 0))
}

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("entity missing")
	wrapped := Permanent(base)

	assert.True(t, IsPermanent(wrapped))
	assert.True(t, IsPermanent(fmt.Errorf("process job: %w", wrapped)))
	assert.False(t, IsPermanent(base))
	assert.ErrorIs(t, wrapped, base)
	assert.Nil(t, Permanent(nil))
}

func TestProcessSuccessRecordsResult(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	job := newQueuedJob("resume-scoring", 3, time.Now())
	require.NoError(t, store.Create(ctx, job))

	var sawProgress []int
	handler := func(ctx context.Context, aj *ActiveJob) (any, error) {
		aj.Progress(ctx, 30)
		got, err := store.Get(ctx, aj.Job.ID)
		require.NoError(t, err)
		sawProgress = append(sawProgress, got.Progress)
		return map[string]any{"total_score": 87.5}, nil
	}

	pool := NewPool([]string{"resume-scoring"}, scoringKindConfig(), time.Second, store, handler, clock.New())
	pool.process(ctx, claimJob(t, store, "resume-scoring"))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.JSONEq(t, `{"total_score":87.5}`, string(got.Result))
	assert.Equal(t, []int{30}, sawProgress)
}

func TestProcessRetryableErrorRequeuesWithBackoff(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	store := NewMemStore()
	job := newQueuedJob("resume-scoring", 3, mock.Now())
	require.NoError(t, store.Create(ctx, job))

	handler := func(context.Context, *ActiveJob) (any, error) {
		return nil, errors.New("compute unavailable")
	}

	pool := NewPool([]string{"resume-scoring"}, scoringKindConfig(), time.Second, store, handler, mock)

	claimed, err := store.ClaimNext(ctx, []string{"resume-scoring"}, mock.Now())
	require.NoError(t, err)
	pool.process(ctx, claimed)

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, mock.Now().Add(2*time.Second), got.RunAt)

	// Second failure doubles the delay.
	claimed, err = store.ClaimNext(ctx, []string{"resume-scoring"}, got.RunAt)
	require.NoError(t, err)
	pool.process(ctx, claimed)

	got, err = store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, mock.Now().Add(4*time.Second), got.RunAt)
}

func TestProcessPermanentErrorFailsImmediately(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	job := newQueuedJob("resume-scoring", 3, time.Now())
	require.NoError(t, store.Create(ctx, job))

	handler := func(context.Context, *ActiveJob) (any, error) {
		return nil, Permanent(errors.New("resume deleted"))
	}

	pool := NewPool([]string{"resume-scoring"}, scoringKindConfig(), time.Second, store, handler, clock.New())
	pool.process(ctx, claimJob(t, store, "resume-scoring"))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "resume deleted")
}

func TestProcessExhaustedAttemptsFailTerminally(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	job := newQueuedJob("resume-scoring", 3, time.Now())
	require.NoError(t, store.Create(ctx, job))

	handler := func(context.Context, *ActiveJob) (any, error) {
		return nil, errors.New("compute unavailable")
	}
	pool := NewPool([]string{"resume-scoring"}, scoringKindConfig(), time.Second, store, handler, clock.New())

	for attempt := 1; attempt <= 3; attempt++ {
		claimed, err := store.ClaimNext(ctx, []string{"resume-scoring"}, time.Now().Add(time.Minute))
		require.NoError(t, err, "attempt %d", attempt)
		require.NotNil(t, claimed, "attempt %d", attempt)
		pool.process(ctx, claimed)
	}

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
}

// ctxCheckedStore fails writes once the context is canceled, the way a
// database-backed store does.
type ctxCheckedStore struct{ Store }

func (s ctxCheckedStore) MarkCompleted(ctx context.Context, id uuid.UUID, result []byte, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.MarkCompleted(ctx, id, result, now)
}

func (s ctxCheckedStore) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, runAt time.Time, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.MarkRetry(ctx, id, attempts, runAt, lastError)
}

func (s ctxCheckedStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.MarkFailed(ctx, id, attempts, lastError, now)
}

func TestPoolShutdownMidJobStillWritesOutcome(t *testing.T) {
	ctx := context.Background()
	store := ctxCheckedStore{NewMemStore()}

	job := newQueuedJob("resume-scoring", 3, time.Now())
	require.NoError(t, store.Create(ctx, job))

	started := make(chan struct{})
	handler := func(ctx context.Context, _ *ActiveJob) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	pool := NewPool([]string{"resume-scoring"}, scoringKindConfig(), 10*time.Millisecond, store, handler, clock.New())
	pool.Start(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not claimed in time")
	}
	pool.Stop()

	// The interrupted attempt must be recorded; an active job with no
	// worker would never be claimed again.
	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "context canceled")
}

func TestPoolProcessesJobsEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	jobs := []*model.QueueJob{
		newQueuedJob("resume-scoring", 3, time.Now()),
		newQueuedJob("resume-scoring", 3, time.Now()),
	}
	for _, j := range jobs {
		require.NoError(t, store.Create(ctx, j))
	}

	done := make(chan struct{}, len(jobs))
	handler := func(context.Context, *ActiveJob) (any, error) {
		done <- struct{}{}
		return "ok", nil
	}

	cfg := scoringKindConfig()
	cfg.Concurrency = 2
	pool := NewPool([]string{"resume-scoring"}, cfg, 10*time.Millisecond, store, handler, clock.New())
	pool.Start(ctx)
	defer pool.Stop()

	for range jobs {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed in time")
		}
	}
}
