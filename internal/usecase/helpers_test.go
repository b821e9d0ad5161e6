package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ardiansyah/talent-match/internal/cache"
	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
)

// testEnv wires the pipeline against fakes: in-memory repositories, the
// in-memory queue store, a mock clock and a stub compute backend.
type testEnv struct {
	state   *fakeState
	repos   repository.Repos
	txm     *fakeTxManager
	store   *queue.MemStore
	manager *queue.Manager
	clock   *clock.Mock
	compute *stubCompute
	policy  *cache.Policy

	embeddings  *EmbeddingUsecase
	scores      *ScoreUsecase
	comparisons *ComparisonUsecase
	resumes     *ResumeUsecase
	postings    *JobPostingUsecase
}

func newTestEnv() *testEnv {
	state := newFakeState()
	repos := state.repos()
	txm := &fakeTxManager{state: state}
	mock := clock.NewMock()
	store := queue.NewMemStore()

	queueCfg := &config.QueueConfig{
		Kinds: map[string]config.KindConfig{
			config.KindResumeEmbedding:     {Priority: 2, Concurrency: 2, MaxAttempts: 3, BackoffBase: 2 * time.Second},
			config.KindResumeScoring:       {Priority: 3, Concurrency: 1, MaxAttempts: 3, BackoffBase: 2 * time.Second},
			config.KindJobPostingEmbedding: {Priority: 2, Concurrency: 2, MaxAttempts: 3, BackoffBase: 2 * time.Second},
			config.KindResumeComparison:    {Priority: 2, Concurrency: 2, MaxAttempts: 3, BackoffBase: 2 * time.Second},
		},
		PollInterval:       time.Second,
		CompletedRetention: 24 * time.Hour,
		CompletedMax:       100,
		FailedRetention:    7 * 24 * time.Hour,
		PruneInterval:      time.Hour,

		StalledAfter:         5 * time.Minute,
		StalledSweepInterval: time.Minute,
	}
	cacheCfg := &config.CacheConfig{
		EmbeddingTTL:  30 * 24 * time.Hour,
		ScoreTTL:      7 * 24 * time.Hour,
		ComparisonTTL: 30 * 24 * time.Hour,
	}

	manager := queue.NewManager(store, queueCfg, mock)
	policy := cache.NewPolicy(cacheCfg, mock)
	compute := newStubCompute()

	return &testEnv{
		state:       state,
		repos:       repos,
		txm:         txm,
		store:       store,
		manager:     manager,
		clock:       mock,
		compute:     compute,
		policy:      policy,
		embeddings:  NewEmbeddingUsecase(repos, manager, policy, compute, mock),
		scores:      NewScoreUsecase(repos, manager, policy, compute, mock),
		comparisons: NewComparisonUsecase(repos, manager, policy, compute, mock),
		resumes:     NewResumeUsecase(repos, txm, manager, mock),
		postings:    NewJobPostingUsecase(repos, txm, manager, mock),
	}
}

func (e *testEnv) addResume(t *testing.T) *model.Resume {
	t.Helper()
	resume := &model.Resume{ID: uuid.New(), FirstName: "Dewi", LastName: "Lestari"}
	require.NoError(t, e.repos.Resumes.Create(context.Background(), resume))
	return resume
}

func (e *testEnv) addPosting(t *testing.T) *model.JobPosting {
	t.Helper()
	posting := &model.JobPosting{ID: uuid.New(), Title: "Backend Engineer", Description: "Build services"}
	require.NoError(t, e.repos.JobPostings.Create(context.Background(), posting))
	return posting
}

// queuedJobs returns the queued jobs of one kind, in enqueue order.
func (e *testEnv) queuedJobs(t *testing.T, kind string) []*model.QueueJob {
	t.Helper()
	var out []*model.QueueJob
	for {
		job, err := e.store.ClaimNext(context.Background(), []string{kind}, e.clock.Now().Add(time.Hour))
		require.NoError(t, err)
		if job == nil {
			return out
		}
		out = append(out, job)
	}
}

// newScoringPool builds a worker pool over the scoring handler for tests
// that drive the full claim/retry cycle.
func (e *testEnv) newScoringPool(cfg config.KindConfig) *queue.Pool {
	return queue.NewPool([]string{config.KindResumeScoring}, cfg, time.Second, e.store, e.scores.ProcessResumeScore, e.clock)
}

// activeJob claims the next queued job of the kind and wraps it the way the
// worker pool hands it to a handler.
func (e *testEnv) activeJob(t *testing.T, kind string) *queue.ActiveJob {
	t.Helper()
	job, err := e.store.ClaimNext(context.Background(), []string{kind}, e.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, job, "expected a queued %s job", kind)
	return queue.NewActiveJob(job, e.store)
}
