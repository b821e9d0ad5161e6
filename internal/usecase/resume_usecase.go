package usecase

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
)

// ResumeUsecase owns the resume entity lifecycle. Every mutation runs the
// cache invalidation inside the same transaction as the entity write, and
// recompute jobs are enqueued only after that transaction commits.
type ResumeUsecase struct {
	repos repository.Repos
	txm   repository.TxManagerInterface
	queue *queue.Manager
	clock clock.Clock
	log   *logrus.Entry
}

func NewResumeUsecase(repos repository.Repos, txm repository.TxManagerInterface, qm *queue.Manager, clk clock.Clock) *ResumeUsecase {
	if clk == nil {
		clk = clock.New()
	}
	return &ResumeUsecase{
		repos: repos,
		txm:   txm,
		queue: qm,
		clock: clk,
		log:   logrus.WithField("component", "resume-usecase"),
	}
}

// Create persists the resume together with placeholder embedding and score
// rows, then enqueues the initial generation jobs. The placeholders make
// every later cache read see a row that is simply not fresh yet, so the
// read path has one shape for "new" and "stale".
func (uc *ResumeUsecase) Create(ctx context.Context, resume *model.Resume) (*model.Resume, error) {
	now := uc.clock.Now()
	err := uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		if err := tx.Resumes.Create(ctx, resume); err != nil {
			return fmt.Errorf("create resume: %w", err)
		}
		if err := tx.ResumeEmbeddings.ResetToEmpty(ctx, resume.ID, now); err != nil {
			return fmt.Errorf("create embedding placeholder: %w", err)
		}
		if err := tx.ResumeScores.ResetToEmpty(ctx, resume.ID, now); err != nil {
			return fmt.Errorf("create score placeholder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.enqueue(ctx, config.KindResumeEmbedding, resume.ID, false)
	uc.enqueue(ctx, config.KindResumeScoring, resume.ID, false)
	return resume, nil
}

// Update applies the field changes and invalidates exactly the caches the
// changed fields affect. The returned Invalidation tells callers which
// recompute path was triggered, if any.
func (uc *ResumeUsecase) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.Resume, Invalidation, error) {
	inv := ClassifyResumeUpdate(fields)
	now := uc.clock.Now()

	var updated *model.Resume
	err := uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		var err error
		updated, err = tx.Resumes.Update(ctx, id, fields, now)
		if err != nil {
			return err
		}

		switch inv {
		case InvalidateEmbedding:
			if err := tx.ResumeEmbeddings.ResetToEmpty(ctx, id, now); err != nil {
				return fmt.Errorf("reset embedding: %w", err)
			}
			fallthrough
		case InvalidateScore:
			if err := tx.ResumeScores.ResetToEmpty(ctx, id, now); err != nil {
				return fmt.Errorf("reset score: %w", err)
			}
			if _, err := tx.Comparisons.DeleteByResume(ctx, id); err != nil {
				return fmt.Errorf("delete comparisons: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, InvalidateNone, err
	}

	switch inv {
	case InvalidateEmbedding:
		uc.enqueue(ctx, config.KindResumeEmbedding, id, true)
		uc.enqueue(ctx, config.KindResumeScoring, id, true)
	case InvalidateScore:
		uc.enqueue(ctx, config.KindResumeScoring, id, true)
	}

	uc.log.WithFields(logrus.Fields{
		"resume_id":    id,
		"invalidation": inv.String(),
	}).Info("resume updated")
	return updated, inv, nil
}

// Delete removes the resume and every derived artifact in one transaction.
func (uc *ResumeUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.txm.WithTransaction(ctx, func(tx repository.Repos) error {
		if _, err := tx.Comparisons.DeleteByResume(ctx, id); err != nil {
			return fmt.Errorf("delete comparisons: %w", err)
		}
		if err := tx.ResumeEmbeddings.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete embedding: %w", err)
		}
		if err := tx.ResumeScores.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete score: %w", err)
		}
		return tx.Resumes.Delete(ctx, id)
	})
}

func (uc *ResumeUsecase) Get(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	return uc.repos.Resumes.FindByID(ctx, id)
}

func (uc *ResumeUsecase) List(ctx context.Context, q repository.ListResumesQuery) ([]model.Resume, int64, error) {
	return uc.repos.Resumes.List(ctx, q)
}

// enqueue failures are logged, not returned: the entity write already
// committed, and a stale placeholder will be regenerated on the next read.
func (uc *ResumeUsecase) enqueue(ctx context.Context, kind string, id uuid.UUID, invalidate bool) {
	if _, err := uc.queue.Enqueue(ctx, kind, id, nil, invalidate); err != nil {
		uc.log.WithError(err).WithFields(logrus.Fields{
			"kind":      kind,
			"resume_id": id,
		}).Error("failed to enqueue recompute job")
	}
}
