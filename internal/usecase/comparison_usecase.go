package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/ardiansyah/talent-match/internal/cache"
	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/dto"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/service"
)

// ComparisonUsecase is the dispatcher and worker logic for resume vs job
// posting match analyses. A comparison job carries both entity IDs: the
// resume as the job owner and the posting as the secondary ID.
type ComparisonUsecase struct {
	repos   repository.Repos
	queue   *queue.Manager
	policy  *cache.Policy
	compute service.ComputeServiceInterface
	clock   clock.Clock
	log     *logrus.Entry
}

func NewComparisonUsecase(repos repository.Repos, qm *queue.Manager, policy *cache.Policy, compute service.ComputeServiceInterface, clk clock.Clock) *ComparisonUsecase {
	if clk == nil {
		clk = clock.New()
	}
	return &ComparisonUsecase{
		repos:   repos,
		queue:   qm,
		policy:  policy,
		compute: compute,
		clock:   clk,
		log:     logrus.WithField("component", "comparison-usecase"),
	}
}

// GetOrGenerateComparison serves the cached comparison when fresh,
// otherwise enqueues a comparison job and returns its handle.
func (uc *ComparisonUsecase) GetOrGenerateComparison(ctx context.Context, resumeID, jobPostingID uuid.UUID, invalidateCache bool) (*dto.CacheResult, error) {
	if !invalidateCache {
		comparison, err := uc.repos.Comparisons.Get(ctx, resumeID, jobPostingID)
		if err != nil {
			return nil, fmt.Errorf("read comparison cache: %w", err)
		}
		if comparison != nil && uc.policy.Fresh(comparison, cache.KindComparison) {
			uc.log.WithFields(logrus.Fields{
				"resume_id":      resumeID,
				"job_posting_id": jobPostingID,
			}).Debug("comparison cache hit")
			return &dto.CacheResult{Cached: true, Data: comparison}, nil
		}
	}

	job, err := uc.queue.Enqueue(ctx, config.KindResumeComparison, resumeID, &jobPostingID, invalidateCache)
	if err != nil {
		return nil, err
	}
	return &dto.CacheResult{Cached: false, JobID: job.ID}, nil
}

// ComparisonJobResult is stored as the queue job's result payload.
type ComparisonJobResult struct {
	ResumeID     uuid.UUID `json:"resume_id"`
	JobPostingID uuid.UUID `json:"job_posting_id"`
	Cached       bool      `json:"cached"`
	TotalScore   float64   `json:"total_score"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ProcessComparison handles one dequeued resume-comparison job. Either
// entity missing makes the job permanently failed; a deleted entity will
// never come back under the same ID.
func (uc *ComparisonUsecase) ProcessComparison(ctx context.Context, aj *queue.ActiveJob) (any, error) {
	resumeID := aj.Job.OwnerID
	if aj.Job.SecondaryID == nil {
		return nil, queue.Permanent(errors.New("comparison job missing job posting id"))
	}
	jobPostingID := *aj.Job.SecondaryID
	aj.Progress(ctx, 5)

	resume, err := uc.repos.Resumes.FindByID(ctx, resumeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, queue.Permanent(fmt.Errorf("resume %s: %w", resumeID, err))
	}
	if err != nil {
		return nil, err
	}
	posting, err := uc.repos.JobPostings.FindByID(ctx, jobPostingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, queue.Permanent(fmt.Errorf("job posting %s: %w", jobPostingID, err))
	}
	if err != nil {
		return nil, err
	}
	aj.Progress(ctx, 10)

	if !aj.Job.InvalidateCache {
		comparison, err := uc.repos.Comparisons.Get(ctx, resumeID, jobPostingID)
		if err != nil {
			return nil, err
		}
		if comparison != nil && uc.policy.Fresh(comparison, cache.KindComparison) {
			return ComparisonJobResult{
				ResumeID:     resumeID,
				JobPostingID: jobPostingID,
				Cached:       true,
				TotalScore:   comparison.TotalScore,
				GeneratedAt:  comparison.GeneratedAt,
			}, nil
		}
	}

	aj.Progress(ctx, 30)
	payload, err := uc.compute.Comparison(ctx, resume, posting)
	if err != nil {
		if errors.Is(err, service.ErrMalformedPayload) {
			return nil, queue.Permanent(err)
		}
		return nil, err
	}
	aj.Progress(ctx, 70)

	now := uc.clock.Now()
	comparison := &model.ResumeJobComparison{
		ResumeID:              resumeID,
		JobPostingID:          jobPostingID,
		SkillSimilarity:       payload.SkillSimilarity,
		ExperienceSimilarity:  payload.ExperienceSimilarity,
		RequirementSimilarity: payload.RequirementSimilarity,
		TotalScore:            payload.TotalScore,
		MatchedSkills:         datatypes.NewJSONSlice(payload.MatchedSkills),
		MissingSkills:         datatypes.NewJSONSlice(payload.MissingSkills),
		Strengths:             datatypes.NewJSONSlice(payload.Strengths),
		Improvements:          datatypes.NewJSONSlice(payload.Improvements),
		GeneratedAt:           now,
	}
	if err := uc.repos.Comparisons.Upsert(ctx, comparison); err != nil {
		return nil, fmt.Errorf("persist comparison: %w", err)
	}

	return ComparisonJobResult{
		ResumeID:     resumeID,
		JobPostingID: jobPostingID,
		TotalScore:   comparison.TotalScore,
		GeneratedAt:  now,
	}, nil
}
