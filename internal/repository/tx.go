package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested source entity does not exist.
// Cache reads do not use it: an absent artifact is a miss, not an error.
var ErrNotFound = errors.New("record not found")

// Repos bundles every repository bound to one database handle. Inside
// WithTransaction the bundle is bound to the transaction, so entity
// mutations and cache invalidation commit or roll back together.
type Repos struct {
	Resumes              ResumeRepositoryInterface
	JobPostings          JobPostingRepositoryInterface
	ResumeEmbeddings     ResumeEmbeddingRepositoryInterface
	ResumeScores         ResumeScoreRepositoryInterface
	JobPostingEmbeddings JobPostingEmbeddingRepositoryInterface
	Comparisons          ComparisonRepositoryInterface
}

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Resumes:              NewResumeRepository(db),
		JobPostings:          NewJobPostingRepository(db),
		ResumeEmbeddings:     NewResumeEmbeddingRepository(db),
		ResumeScores:         NewResumeScoreRepository(db),
		JobPostingEmbeddings: NewJobPostingEmbeddingRepository(db),
		Comparisons:          NewComparisonRepository(db),
	}
}

// TxManagerInterface wraps a callback so every write inside it commits or
// rolls back atomically.
type TxManagerInterface interface {
	WithTransaction(ctx context.Context, fn func(Repos) error) error
}

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
