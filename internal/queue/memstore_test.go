package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardiansyah/talent-match/internal/model"
)

func newQueuedJob(kind string, priority int, runAt time.Time) *model.QueueJob {
	return &model.QueueJob{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      model.JobStatusQueued,
		OwnerID:     uuid.New(),
		Priority:    priority,
		MaxAttempts: 3,
		RunAt:       runAt,
	}
}

func TestMemStoreClaimIsFIFOWithinPriority(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	first := newQueuedJob("resume-scoring", 3, now)
	second := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	got, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, model.JobStatusActive, got.Status)
	require.NotNil(t, got.StartedAt)

	got, err = store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
}

func TestMemStoreClaimPrefersLowerPriorityNumber(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	scoring := newQueuedJob("resume-scoring", 3, now)
	embedding := newQueuedJob("resume-embedding", 2, now)
	require.NoError(t, store.Create(ctx, scoring))
	require.NoError(t, store.Create(ctx, embedding))

	got, err := store.ClaimNext(ctx, []string{"resume-scoring", "resume-embedding"}, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, embedding.ID, got.ID)
}

func TestMemStoreClaimFiltersByKind(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	require.NoError(t, store.Create(ctx, newQueuedJob("resume-embedding", 2, now)))

	got, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemStoreClaimHonorsRunAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	delayed := newQueuedJob("resume-scoring", 3, now.Add(2*time.Second))
	require.NoError(t, store.Create(ctx, delayed))

	got, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.ClaimNext(ctx, []string{"resume-scoring"}, now.Add(2*time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, delayed.ID, got.ID)
}

func TestMemStoreClaimedJobIsNotClaimedTwice(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	job := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, job))

	got, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemStoreRetryRequeuesWithBackoffTime(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	job := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, job))
	_, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)

	runAt := now.Add(4 * time.Second)
	require.NoError(t, store.MarkRetry(ctx, job.ID, 1, runAt, "compute unavailable"))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, "compute unavailable", got.LastError)

	claimed, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	assert.Nil(t, claimed)

	claimed, err = store.ClaimNext(ctx, []string{"resume-scoring"}, runAt)
	require.NoError(t, err)
	require.NotNil(t, claimed)
}

func TestMemStoreTerminalStates(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	completed := newQueuedJob("resume-scoring", 3, now)
	failed := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, completed))
	require.NoError(t, store.Create(ctx, failed))

	require.NoError(t, store.MarkCompleted(ctx, completed.ID, []byte(`{"ok":true}`), now))
	require.NoError(t, store.MarkFailed(ctx, failed.ID, 3, "entity missing", now))

	got, err := store.Get(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.JSONEq(t, `{"ok":true}`, string(got.Result))
	require.NotNil(t, got.FinishedAt)

	got, err = store.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, "entity missing", got.LastError)
}

func TestMemStoreGetUnknownJob(t *testing.T) {
	store := NewMemStore()
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemStorePruneByAge(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()
	policy := RetentionPolicy{CompletedAge: 24 * time.Hour, CompletedMax: 100, FailedAge: 7 * 24 * time.Hour}

	oldCompleted := newQueuedJob("resume-scoring", 3, now)
	freshCompleted := newQueuedJob("resume-scoring", 3, now)
	oldFailed := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, oldCompleted))
	require.NoError(t, store.Create(ctx, freshCompleted))
	require.NoError(t, store.Create(ctx, oldFailed))

	require.NoError(t, store.MarkCompleted(ctx, oldCompleted.ID, nil, now.Add(-25*time.Hour)))
	require.NoError(t, store.MarkCompleted(ctx, freshCompleted.ID, nil, now.Add(-time.Hour)))
	require.NoError(t, store.MarkFailed(ctx, oldFailed.ID, 3, "x", now.Add(-8*24*time.Hour)))

	pruned, err := store.Prune(ctx, now, policy)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pruned)

	_, err = store.Get(ctx, oldCompleted.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = store.Get(ctx, oldFailed.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = store.Get(ctx, freshCompleted.ID)
	assert.NoError(t, err)
}

func TestMemStorePruneKeepsNewestCompleted(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()
	policy := RetentionPolicy{CompletedAge: 24 * time.Hour, CompletedMax: 2, FailedAge: 7 * 24 * time.Hour}

	jobs := make([]*model.QueueJob, 4)
	for i := range jobs {
		jobs[i] = newQueuedJob("resume-scoring", 3, now)
		require.NoError(t, store.Create(ctx, jobs[i]))
		finished := now.Add(time.Duration(i-10) * time.Minute)
		require.NoError(t, store.MarkCompleted(ctx, jobs[i].ID, nil, finished))
	}

	pruned, err := store.Prune(ctx, now, policy)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pruned)

	// The two most recently finished survive.
	_, err = store.Get(ctx, jobs[3].ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, jobs[2].ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, jobs[1].ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = store.Get(ctx, jobs[0].ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemStoreRequeueStalledReturnsOldActiveJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	now := time.Now()

	stale := newQueuedJob("resume-scoring", 3, now.Add(-10*time.Minute))
	fresh := newQueuedJob("resume-scoring", 3, now)
	require.NoError(t, store.Create(ctx, stale))
	require.NoError(t, store.Create(ctx, fresh))

	// stale was claimed ten minutes ago, fresh just now.
	claimed, err := store.ClaimNext(ctx, []string{"resume-scoring"}, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, stale.ID, claimed.ID)
	claimed, err = store.ClaimNext(ctx, []string{"resume-scoring"}, now)
	require.NoError(t, err)
	require.Equal(t, fresh.ID, claimed.ID)

	requeued, err := store.RequeueStalled(ctx, now.Add(-5*time.Minute), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, requeued)

	got, err := store.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)
	assert.Nil(t, got.StartedAt)
	assert.Equal(t, now, got.RunAt)

	got, err = store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusActive, got.Status)
}
