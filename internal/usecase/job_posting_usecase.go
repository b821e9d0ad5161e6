package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
)

// ErrEmbeddingNotReady means vector matching was requested before the
// resume's embedding has been generated.
var ErrEmbeddingNotReady = errors.New("resume embedding not generated yet")

// JobPostingUsecase owns the job posting lifecycle and vector matching.
// Postings have one derived artifact of their own (the embedding); the
// shared one (comparisons) is deleted on any content change and rebuilt
// lazily on the next comparison request.
type JobPostingUsecase struct {
	repos repository.Repos
	txm   repository.TxManagerInterface
	queue *queue.Manager
	clock clock.Clock
	log   *logrus.Entry
}

func NewJobPostingUsecase(repos repository.Repos, txm repository.TxManagerInterface, qm *queue.Manager, clk clock.Clock) *JobPostingUsecase {
	if clk == nil {
		clk = clock.New()
	}
	return &JobPostingUsecase{
		repos: repos,
		txm:   txm,
		queue: qm,
		clock: clk,
		log:   logrus.WithField("component", "job-posting-usecase"),
	}
}

func (uc *JobPostingUsecase) Create(ctx context.Context, posting *model.JobPosting) (*model.JobPosting, error) {
	now := uc.clock.Now()
	err := uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		if err := tx.JobPostings.Create(ctx, posting); err != nil {
			return fmt.Errorf("create job posting: %w", err)
		}
		if err := tx.JobPostingEmbeddings.ResetToEmpty(ctx, posting.ID, now); err != nil {
			return fmt.Errorf("create embedding placeholder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.enqueue(ctx, posting.ID, false)
	return posting, nil
}

func (uc *JobPostingUsecase) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.JobPosting, Invalidation, error) {
	inv := ClassifyJobPostingUpdate(fields)
	now := uc.clock.Now()

	var updated *model.JobPosting
	err := uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		var err error
		updated, err = tx.JobPostings.Update(ctx, id, fields, now)
		if err != nil {
			return err
		}

		switch inv {
		case InvalidateEmbedding:
			if err := tx.JobPostingEmbeddings.ResetToEmpty(ctx, id, now); err != nil {
				return fmt.Errorf("reset embedding: %w", err)
			}
			fallthrough
		case InvalidateScore:
			if _, err := tx.Comparisons.DeleteByJobPosting(ctx, id); err != nil {
				return fmt.Errorf("delete comparisons: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, InvalidateNone, err
	}

	if inv == InvalidateEmbedding {
		uc.enqueue(ctx, id, true)
	}

	uc.log.WithFields(logrus.Fields{
		"job_posting_id": id,
		"invalidation":   inv.String(),
	}).Info("job posting updated")
	return updated, inv, nil
}

func (uc *JobPostingUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		if _, err := tx.Comparisons.DeleteByJobPosting(ctx, id); err != nil {
			return fmt.Errorf("delete comparisons: %w", err)
		}
		if err := tx.JobPostingEmbeddings.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete embedding: %w", err)
		}
		return tx.JobPostings.Delete(ctx, id)
	})
}

func (uc *JobPostingUsecase) Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	return uc.repos.JobPostings.FindByID(ctx, id)
}

func (uc *JobPostingUsecase) List(ctx context.Context, page, limit int) ([]model.JobPosting, int64, error) {
	return uc.repos.JobPostings.List(ctx, page, limit)
}

// MatchForResume ranks job postings by vector distance between the
// resume's skills embedding and each posting's description embedding.
// A resume whose embedding is still a placeholder cannot be matched yet.
func (uc *JobPostingUsecase) MatchForResume(ctx context.Context, resumeID uuid.UUID, topK int) ([]repository.JobPostingMatch, error) {
	embedding, err := uc.repos.ResumeEmbeddings.Get(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if embedding == nil || embedding.Placeholder() || embedding.SkillsMean == nil {
		return nil, ErrEmbeddingNotReady
	}
	return uc.repos.JobPostings.MatchByVector(ctx, *embedding.SkillsMean, topK)
}

func (uc *JobPostingUsecase) enqueue(ctx context.Context, id uuid.UUID, invalidate bool) {
	if _, err := uc.queue.Enqueue(ctx, config.KindJobPostingEmbedding, id, nil, invalidate); err != nil {
		uc.log.WithError(err).WithFields(logrus.Fields{
			"kind":           config.KindJobPostingEmbedding,
			"job_posting_id": id,
		}).Error("failed to enqueue recompute job")
	}
}
