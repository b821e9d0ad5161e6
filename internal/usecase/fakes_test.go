package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/service"
)

// fakeState is the in-memory database behind the fake repositories. All
// fakes share one instance so transactional flows see each other's writes.
type fakeState struct {
	mu sync.Mutex

	resumes           map[uuid.UUID]*model.Resume
	postings          map[uuid.UUID]*model.JobPosting
	resumeEmbeddings  map[uuid.UUID]*model.ResumeEmbedding
	postingEmbeddings map[uuid.UUID]*model.JobPostingEmbedding
	scores            map[uuid.UUID]*model.ResumeScore
	comparisons       map[comparisonKey]*model.ResumeJobComparison

	// failOn forces the named operation to fail, for rollback tests.
	failOn map[string]error

	matches []repository.JobPostingMatch
}

type comparisonKey struct {
	resumeID     uuid.UUID
	jobPostingID uuid.UUID
}

func newFakeState() *fakeState {
	return &fakeState{
		resumes:           make(map[uuid.UUID]*model.Resume),
		postings:          make(map[uuid.UUID]*model.JobPosting),
		resumeEmbeddings:  make(map[uuid.UUID]*model.ResumeEmbedding),
		postingEmbeddings: make(map[uuid.UUID]*model.JobPostingEmbedding),
		scores:            make(map[uuid.UUID]*model.ResumeScore),
		comparisons:       make(map[comparisonKey]*model.ResumeJobComparison),
		failOn:            make(map[string]error),
	}
}

func (s *fakeState) repos() repository.Repos {
	return repository.Repos{
		Resumes:              &fakeResumeRepo{s},
		JobPostings:          &fakePostingRepo{s},
		ResumeEmbeddings:     &fakeResumeEmbeddingRepo{s},
		ResumeScores:         &fakeScoreRepo{s},
		JobPostingEmbeddings: &fakePostingEmbeddingRepo{s},
		Comparisons:          &fakeComparisonRepo{s},
	}
}

func (s *fakeState) fail(op string) error {
	return s.failOn[op]
}

type snapshot struct {
	resumes           map[uuid.UUID]*model.Resume
	postings          map[uuid.UUID]*model.JobPosting
	resumeEmbeddings  map[uuid.UUID]*model.ResumeEmbedding
	postingEmbeddings map[uuid.UUID]*model.JobPostingEmbedding
	scores            map[uuid.UUID]*model.ResumeScore
	comparisons       map[comparisonKey]*model.ResumeJobComparison
}

// The fakes replace map entries wholesale instead of mutating stored
// values, so a shallow map copy is a correct transaction snapshot.
func (s *fakeState) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		resumes:           copyMap(s.resumes),
		postings:          copyMap(s.postings),
		resumeEmbeddings:  copyMap(s.resumeEmbeddings),
		postingEmbeddings: copyMap(s.postingEmbeddings),
		scores:            copyMap(s.scores),
		comparisons:       copyMap(s.comparisons),
	}
}

func (s *fakeState) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes = snap.resumes
	s.postings = snap.postings
	s.resumeEmbeddings = snap.resumeEmbeddings
	s.postingEmbeddings = snap.postingEmbeddings
	s.scores = snap.scores
	s.comparisons = snap.comparisons
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakeTxManager snapshots the state before the callback and restores it
// when the callback errors, mimicking a rollback.
type fakeTxManager struct {
	state *fakeState
}

func (m *fakeTxManager) WithTransaction(_ context.Context, fn func(repository.Repos) error) error {
	snap := m.state.snapshot()
	if err := fn(m.state.repos()); err != nil {
		m.state.restore(snap)
		return err
	}
	return nil
}

type fakeResumeRepo struct{ s *fakeState }

func (r *fakeResumeRepo) Create(_ context.Context, resume *model.Resume) error {
	if err := r.s.fail("resume.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if resume.ID == uuid.Nil {
		resume.ID = uuid.New()
	}
	cp := *resume
	r.s.resumes[cp.ID] = &cp
	return nil
}

func (r *fakeResumeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Resume, error) {
	if err := r.s.fail("resume.find"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	resume, ok := r.s.resumes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *resume
	return &cp, nil
}

func (r *fakeResumeRepo) Update(_ context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.Resume, error) {
	if err := r.s.fail("resume.update"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	resume, ok := r.s.resumes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *resume
	for name, value := range fields {
		if text, ok := value.(string); ok {
			switch name {
			case "first_name":
				cp.FirstName = text
			case "last_name":
				cp.LastName = text
			case "phone":
				cp.Phone = text
			case "summary":
				cp.Summary = text
			}
		}
	}
	cp.UpdatedAt = now
	r.s.resumes[id] = &cp
	out := cp
	return &out, nil
}

func (r *fakeResumeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.fail("resume.delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resumes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.resumes, id)
	return nil
}

func (r *fakeResumeRepo) List(_ context.Context, q repository.ListResumesQuery) ([]model.Resume, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Resume
	for _, resume := range r.s.resumes {
		if q.Skill != "" && !hasSkill(resume, q.Skill) {
			continue
		}
		out = append(out, *resume)
	}
	return out, int64(len(out)), nil
}

func hasSkill(resume *model.Resume, name string) bool {
	for _, s := range resume.Skills {
		if s.Name == name {
			return true
		}
	}
	return false
}

type fakePostingRepo struct{ s *fakeState }

func (r *fakePostingRepo) Create(_ context.Context, posting *model.JobPosting) error {
	if err := r.s.fail("posting.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if posting.ID == uuid.Nil {
		posting.ID = uuid.New()
	}
	cp := *posting
	r.s.postings[cp.ID] = &cp
	return nil
}

func (r *fakePostingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.JobPosting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posting, ok := r.s.postings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *posting
	return &cp, nil
}

func (r *fakePostingRepo) Update(_ context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.JobPosting, error) {
	if err := r.s.fail("posting.update"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posting, ok := r.s.postings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *posting
	for name, value := range fields {
		if text, ok := value.(string); ok {
			switch name {
			case "title":
				cp.Title = text
			case "description":
				cp.Description = text
			case "location":
				cp.Location = text
			}
		}
	}
	cp.UpdatedAt = now
	r.s.postings[id] = &cp
	out := cp
	return &out, nil
}

func (r *fakePostingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.postings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.postings, id)
	return nil
}

func (r *fakePostingRepo) List(_ context.Context, page, limit int) ([]model.JobPosting, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.JobPosting
	for _, posting := range r.s.postings {
		out = append(out, *posting)
	}
	return out, int64(len(out)), nil
}

func (r *fakePostingRepo) MatchByVector(context.Context, pgvector.Vector, int) ([]repository.JobPostingMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.matches, nil
}

type fakeResumeEmbeddingRepo struct{ s *fakeState }

func (r *fakeResumeEmbeddingRepo) Get(_ context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error) {
	if err := r.s.fail("embedding.get"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	embedding, ok := r.s.resumeEmbeddings[resumeID]
	if !ok {
		return nil, nil
	}
	cp := *embedding
	return &cp, nil
}

func (r *fakeResumeEmbeddingRepo) Upsert(_ context.Context, embedding *model.ResumeEmbedding) error {
	if err := r.s.fail("embedding.upsert"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *embedding
	r.s.resumeEmbeddings[cp.ResumeID] = &cp
	return nil
}

func (r *fakeResumeEmbeddingRepo) ResetToEmpty(_ context.Context, resumeID uuid.UUID, now time.Time) error {
	if err := r.s.fail("embedding.reset"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resumeEmbeddings[resumeID] = &model.ResumeEmbedding{ResumeID: resumeID, GeneratedAt: now}
	return nil
}

func (r *fakeResumeEmbeddingRepo) Delete(_ context.Context, resumeID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.resumeEmbeddings, resumeID)
	return nil
}

func (r *fakeResumeEmbeddingRepo) DeleteGeneratedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.resumeEmbeddings {
		if e.GeneratedAt.Before(cutoff) {
			delete(r.s.resumeEmbeddings, id)
			n++
		}
	}
	return n, nil
}

type fakeScoreRepo struct{ s *fakeState }

func (r *fakeScoreRepo) Get(_ context.Context, resumeID uuid.UUID) (*model.ResumeScore, error) {
	if err := r.s.fail("score.get"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	score, ok := r.s.scores[resumeID]
	if !ok {
		return nil, nil
	}
	cp := *score
	return &cp, nil
}

func (r *fakeScoreRepo) Upsert(_ context.Context, score *model.ResumeScore) error {
	if err := r.s.fail("score.upsert"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *score
	r.s.scores[cp.ResumeID] = &cp
	return nil
}

func (r *fakeScoreRepo) ResetToEmpty(_ context.Context, resumeID uuid.UUID, now time.Time) error {
	if err := r.s.fail("score.reset"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.scores[resumeID] = &model.ResumeScore{ResumeID: resumeID, GeneratedAt: now}
	return nil
}

func (r *fakeScoreRepo) Delete(_ context.Context, resumeID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.scores, resumeID)
	return nil
}

func (r *fakeScoreRepo) DeleteGeneratedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, s := range r.s.scores {
		if s.GeneratedAt.Before(cutoff) {
			delete(r.s.scores, id)
			n++
		}
	}
	return n, nil
}

type fakePostingEmbeddingRepo struct{ s *fakeState }

func (r *fakePostingEmbeddingRepo) Get(_ context.Context, jobPostingID uuid.UUID) (*model.JobPostingEmbedding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	embedding, ok := r.s.postingEmbeddings[jobPostingID]
	if !ok {
		return nil, nil
	}
	cp := *embedding
	return &cp, nil
}

func (r *fakePostingEmbeddingRepo) Upsert(_ context.Context, embedding *model.JobPostingEmbedding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *embedding
	r.s.postingEmbeddings[cp.JobPostingID] = &cp
	return nil
}

func (r *fakePostingEmbeddingRepo) ResetToEmpty(_ context.Context, jobPostingID uuid.UUID, now time.Time) error {
	if err := r.s.fail("posting_embedding.reset"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.postingEmbeddings[jobPostingID] = &model.JobPostingEmbedding{JobPostingID: jobPostingID, GeneratedAt: now}
	return nil
}

func (r *fakePostingEmbeddingRepo) Delete(_ context.Context, jobPostingID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.postingEmbeddings, jobPostingID)
	return nil
}

func (r *fakePostingEmbeddingRepo) DeleteGeneratedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.postingEmbeddings {
		if e.GeneratedAt.Before(cutoff) {
			delete(r.s.postingEmbeddings, id)
			n++
		}
	}
	return n, nil
}

type fakeComparisonRepo struct{ s *fakeState }

func (r *fakeComparisonRepo) Get(_ context.Context, resumeID, jobPostingID uuid.UUID) (*model.ResumeJobComparison, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comparison, ok := r.s.comparisons[comparisonKey{resumeID, jobPostingID}]
	if !ok {
		return nil, nil
	}
	cp := *comparison
	return &cp, nil
}

func (r *fakeComparisonRepo) Upsert(_ context.Context, comparison *model.ResumeJobComparison) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *comparison
	r.s.comparisons[comparisonKey{cp.ResumeID, cp.JobPostingID}] = &cp
	return nil
}

func (r *fakeComparisonRepo) DeleteByResume(_ context.Context, resumeID uuid.UUID) (int64, error) {
	if err := r.s.fail("comparison.delete_by_resume"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key := range r.s.comparisons {
		if key.resumeID == resumeID {
			delete(r.s.comparisons, key)
			n++
		}
	}
	return n, nil
}

func (r *fakeComparisonRepo) DeleteByJobPosting(_ context.Context, jobPostingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key := range r.s.comparisons {
		if key.jobPostingID == jobPostingID {
			delete(r.s.comparisons, key)
			n++
		}
	}
	return n, nil
}

func (r *fakeComparisonRepo) DeleteGeneratedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key, c := range r.s.comparisons {
		if c.GeneratedAt.Before(cutoff) {
			delete(r.s.comparisons, key)
			n++
		}
	}
	return n, nil
}

// stubCompute is the opaque compute boundary for tests: canned payloads,
// error injection, call counting and an optional artificial delay.
type stubCompute struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration

	embedding        *service.EmbeddingPayload
	postingEmbedding *service.PostingEmbeddingPayload
	score            *service.ScorePayload
	comparison       *service.ComparisonPayload
}

func newStubCompute() *stubCompute {
	return &stubCompute{
		embedding: &service.EmbeddingPayload{
			Skills:               []float32{0.1, 0.2},
			TotalExperienceYears: 5,
			ModelName:            "stub-embedding",
			ModelVersion:         "1.0",
		},
		postingEmbedding: &service.PostingEmbeddingPayload{
			Description:  []float32{0.3, 0.4},
			ModelName:    "stub-embedding",
			ModelVersion: "1.0",
		},
		score: &service.ScorePayload{
			TotalScore: 82.5,
			Grade:      "B",
		},
		comparison: &service.ComparisonPayload{
			TotalScore:    68,
			MatchedSkills: []string{"Go"},
		},
	}
}

func (c *stubCompute) called() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *stubCompute) invoke() error {
	c.mu.Lock()
	c.calls++
	err := c.err
	delay := c.delay
	c.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (c *stubCompute) ResumeEmbedding(context.Context, *model.Resume) (*service.EmbeddingPayload, error) {
	if err := c.invoke(); err != nil {
		return nil, err
	}
	return c.embedding, nil
}

func (c *stubCompute) JobPostingEmbedding(context.Context, *model.JobPosting) (*service.PostingEmbeddingPayload, error) {
	if err := c.invoke(); err != nil {
		return nil, err
	}
	return c.postingEmbedding, nil
}

func (c *stubCompute) ResumeScore(context.Context, *model.Resume) (*service.ScorePayload, error) {
	if err := c.invoke(); err != nil {
		return nil, err
	}
	return c.score, nil
}

func (c *stubCompute) Comparison(context.Context, *model.Resume, *model.JobPosting) (*service.ComparisonPayload, error) {
	if err := c.invoke(); err != nil {
		return nil, err
	}
	return c.comparison, nil
}
