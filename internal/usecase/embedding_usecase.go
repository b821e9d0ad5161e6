// Package usecase wires the derived-cache pipeline together: dispatchers
// that answer cache-or-queue on the request path, worker processors that
// populate the caches in the background, and the entity flows that keep
// caches consistent with their source entities.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/ardiansyah/talent-match/internal/cache"
	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/dto"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/service"
)

// EmbeddingUsecase is the dispatcher and worker logic for resume and job
// posting embeddings.
type EmbeddingUsecase struct {
	repos   repository.Repos
	queue   *queue.Manager
	policy  *cache.Policy
	compute service.ComputeServiceInterface
	clock   clock.Clock
	log     *logrus.Entry
}

func NewEmbeddingUsecase(repos repository.Repos, qm *queue.Manager, policy *cache.Policy, compute service.ComputeServiceInterface, clk clock.Clock) *EmbeddingUsecase {
	if clk == nil {
		clk = clock.New()
	}
	return &EmbeddingUsecase{
		repos:   repos,
		queue:   qm,
		policy:  policy,
		compute: compute,
		clock:   clk,
		log:     logrus.WithField("component", "embedding-usecase"),
	}
}

// GetOrGenerateResumeEmbedding serves the cached embedding when it is
// fresh, otherwise enqueues a generation job and returns its handle.
// The expensive compute step never runs on this path.
func (uc *EmbeddingUsecase) GetOrGenerateResumeEmbedding(ctx context.Context, resumeID uuid.UUID, invalidateCache bool) (*dto.CacheResult, error) {
	if !invalidateCache {
		embedding, err := uc.repos.ResumeEmbeddings.Get(ctx, resumeID)
		if err != nil {
			return nil, fmt.Errorf("read embedding cache: %w", err)
		}
		if embedding != nil && uc.policy.Fresh(embedding, cache.KindEmbedding) {
			uc.log.WithField("resume_id", resumeID).Debug("embedding cache hit")
			return &dto.CacheResult{Cached: true, Data: embedding}, nil
		}
	}

	job, err := uc.queue.Enqueue(ctx, config.KindResumeEmbedding, resumeID, nil, invalidateCache)
	if err != nil {
		return nil, err
	}
	return &dto.CacheResult{Cached: false, JobID: job.ID}, nil
}

func (uc *EmbeddingUsecase) GetOrGenerateJobPostingEmbedding(ctx context.Context, jobPostingID uuid.UUID, invalidateCache bool) (*dto.CacheResult, error) {
	if !invalidateCache {
		embedding, err := uc.repos.JobPostingEmbeddings.Get(ctx, jobPostingID)
		if err != nil {
			return nil, fmt.Errorf("read embedding cache: %w", err)
		}
		if embedding != nil && uc.policy.Fresh(embedding, cache.KindEmbedding) {
			return &dto.CacheResult{Cached: true, Data: embedding}, nil
		}
	}

	job, err := uc.queue.Enqueue(ctx, config.KindJobPostingEmbedding, jobPostingID, nil, invalidateCache)
	if err != nil {
		return nil, err
	}
	return &dto.CacheResult{Cached: false, JobID: job.ID}, nil
}

// EmbeddingJobResult is stored as the queue job's result payload.
type EmbeddingJobResult struct {
	OwnerID     uuid.UUID `json:"owner_id"`
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ProcessResumeEmbedding handles one dequeued resume-embedding job.
//
// The cache re-check before compute turns a duplicate job (two concurrent
// misses both enqueued) into a cheap read instead of a second expensive
// compute.
func (uc *EmbeddingUsecase) ProcessResumeEmbedding(ctx context.Context, aj *queue.ActiveJob) (any, error) {
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
		embedding, err := uc.repos.ResumeEmbeddings.Get(ctx, resumeID)
		if err != nil {
			return nil, err
		}
		if embedding != nil && uc.policy.Fresh(embedding, cache.KindEmbedding) {
			uc.log.WithField("resume_id", resumeID).Info("embedding already fresh, skipping compute")
			return EmbeddingJobResult{OwnerID: resumeID, Cached: true, GeneratedAt: embedding.GeneratedAt}, nil
		}
	}

	aj.Progress(ctx, 30)
	payload, err := uc.compute.ResumeEmbedding(ctx, resume)
	if err != nil {
		if errors.Is(err, service.ErrMalformedPayload) {
			return nil, queue.Permanent(err)
		}
		return nil, err
	}
	aj.Progress(ctx, 70)

	now := uc.clock.Now()
	embedding := &model.ResumeEmbedding{
		ResumeID:             resumeID,
		SkillsMean:           vectorPtr(payload.Skills),
		WorkExperienceMean:   vectorPtr(payload.WorkExperience),
		CertificationsMean:   vectorPtr(payload.Certifications),
		TotalExperienceYears: payload.TotalExperienceYears,
		ModelName:            payload.ModelName,
		ModelVersion:         payload.ModelVersion,
		GeneratedAt:          now,
	}
	if err := uc.repos.ResumeEmbeddings.Upsert(ctx, embedding); err != nil {
		return nil, fmt.Errorf("persist embedding: %w", err)
	}

	return EmbeddingJobResult{OwnerID: resumeID, GeneratedAt: now}, nil
}

// ProcessJobPostingEmbedding handles one dequeued posting-embedding job.
func (uc *EmbeddingUsecase) ProcessJobPostingEmbedding(ctx context.Context, aj *queue.ActiveJob) (any, error) {
	postingID := aj.Job.OwnerID
	aj.Progress(ctx, 5)

	posting, err := uc.repos.JobPostings.FindByID(ctx, postingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, queue.Permanent(fmt.Errorf("job posting %s: %w", postingID, err))
	}
	if err != nil {
		return nil, err
	}
	aj.Progress(ctx, 10)

	if !aj.Job.InvalidateCache {
		embedding, err := uc.repos.JobPostingEmbeddings.Get(ctx, postingID)
		if err != nil {
			return nil, err
		}
		if embedding != nil && uc.policy.Fresh(embedding, cache.KindEmbedding) {
			return EmbeddingJobResult{OwnerID: postingID, Cached: true, GeneratedAt: embedding.GeneratedAt}, nil
		}
	}

	aj.Progress(ctx, 30)
	payload, err := uc.compute.JobPostingEmbedding(ctx, posting)
	if err != nil {
		if errors.Is(err, service.ErrMalformedPayload) {
			return nil, queue.Permanent(err)
		}
		return nil, err
	}
	aj.Progress(ctx, 70)

	now := uc.clock.Now()
	embedding := &model.JobPostingEmbedding{
		JobPostingID:     postingID,
		DescriptionMean:  vectorPtr(payload.Description),
		RequirementsMean: vectorPtr(payload.Requirements),
		SkillsMean:       vectorPtr(payload.Skills),
		ModelName:        payload.ModelName,
		ModelVersion:     payload.ModelVersion,
		GeneratedAt:      now,
	}
	if err := uc.repos.JobPostingEmbeddings.Upsert(ctx, embedding); err != nil {
		return nil, fmt.Errorf("persist embedding: %w", err)
	}

	return EmbeddingJobResult{OwnerID: postingID, GeneratedAt: now}, nil
}

func vectorPtr(values []float32) *pgvector.Vector {
	if len(values) == 0 {
		return nil
	}
	v := pgvector.NewVector(values)
	return &v
}
