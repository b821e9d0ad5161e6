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

// ScoreUsecase is the dispatcher and worker logic for resume quality scores.
type ScoreUsecase struct {
	repos   repository.Repos
	queue   *queue.Manager
	policy  *cache.Policy
	compute service.ComputeServiceInterface
	clock   clock.Clock
	log     *logrus.Entry
}

func NewScoreUsecase(repos repository.Repos, qm *queue.Manager, policy *cache.Policy, compute service.ComputeServiceInterface, clk clock.Clock) *ScoreUsecase {
	if clk == nil {
		clk = clock.New()
	}
	return &ScoreUsecase{
		repos:   repos,
		queue:   qm,
		policy:  policy,
		compute: compute,
		clock:   clk,
		log:     logrus.WithField("component", "score-usecase"),
	}
}

// GetOrGenerateResumeScore serves the cached score when fresh, otherwise
// enqueues a scoring job and returns its handle.
func (uc *ScoreUsecase) GetOrGenerateResumeScore(ctx context.Context, resumeID uuid.UUID, invalidateCache bool) (*dto.CacheResult, error) {
	if !invalidateCache {
		score, err := uc.repos.ResumeScores.Get(ctx, resumeID)
		if err != nil {
			return nil, fmt.Errorf("read score cache: %w", err)
		}
		if score != nil && uc.policy.Fresh(score, cache.KindScore) {
			uc.log.WithField("resume_id", resumeID).Debug("score cache hit")
			return &dto.CacheResult{Cached: true, Data: score}, nil
		}
	}

	job, err := uc.queue.Enqueue(ctx, config.KindResumeScoring, resumeID, nil, invalidateCache)
	if err != nil {
		return nil, err
	}
	return &dto.CacheResult{Cached: false, JobID: job.ID}, nil
}

// ScoreJobResult is stored as the queue job's result payload.
type ScoreJobResult struct {
	ResumeID    uuid.UUID `json:"resume_id"`
	Cached      bool      `json:"cached"`
	TotalScore  float64   `json:"total_score"`
	Grade       string    `json:"grade"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ProcessResumeScore handles one dequeued resume-scoring job.
func (uc *ScoreUsecase) ProcessResumeScore(ctx context.Context, aj *queue.ActiveJob) (any, error) {
	resumeID := aj.Job.OwnerID
	aj.Progress(ctx, 5)

	resume, err := uc.repos.Resumes.FindByID(ctx, resumeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, queue.Permanent(fmt.Errorf("resume %s: %w", resumeID, err))
	}
	if err != nil {
		return nil, err
	}
	aj.Progress(ctx, 10)

	if !aj.Job.InvalidateCache {
		score, err := uc.repos.ResumeScores.Get(ctx, resumeID)
		if err != nil {
			return nil, err
		}
		if score != nil && uc.policy.Fresh(score, cache.KindScore) {
			uc.log.WithField("resume_id", resumeID).Info("score already fresh, skipping compute")
			return ScoreJobResult{
				ResumeID:    resumeID,
				Cached:      true,
				TotalScore:  score.TotalScore,
				Grade:       score.Grade,
				GeneratedAt: score.GeneratedAt,
			}, nil
		}
	}

	aj.Progress(ctx, 30)
	payload, err := uc.compute.ResumeScore(ctx, resume)
	if err != nil {
		if errors.Is(err, service.ErrMalformedPayload) {
			return nil, queue.Permanent(err)
		}
		return nil, err
	}
	aj.Progress(ctx, 70)

	now := uc.clock.Now()
	score := &model.ResumeScore{
		ResumeID:                 resumeID,
		CompletenessScore:        payload.CompletenessScore,
		ExperienceScore:          payload.ExperienceScore,
		SkillsScore:              payload.SkillsScore,
		CertificationScore:       payload.CertificationScore,
		TotalScore:               payload.TotalScore,
		Grade:                    payload.Grade,
		OverallMessage:           payload.OverallMessage,
		EstimatedExperienceYears: payload.EstimatedExperienceYears,
		Strengths:                datatypes.NewJSONSlice(payload.Strengths),
		Improvements:             datatypes.NewJSONSlice(payload.Improvements),
		Recommendations:          datatypes.NewJSONSlice(payload.Recommendations),
		GeneratedAt:              now,
	}
	if err := uc.repos.ResumeScores.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}

	return ScoreJobResult{
		ResumeID:    resumeID,
		TotalScore:  score.TotalScore,
		Grade:       score.Grade,
		GeneratedAt: now,
	}, nil
}
