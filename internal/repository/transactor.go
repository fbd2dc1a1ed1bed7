package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepositories exposes repositories bound to a single transaction.
type TxRepositories struct {
	Candidates CandidateRepository
	Links      AssessmentLinkRepository
	Responses  CandidateResponseRepository
}

// Transactor runs pipeline writes that must commit together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx TxRepositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a transactor backed by GORM.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx TxRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepositories{
			Candidates: NewCandidateRepository(tx),
			Links:      NewAssessmentLinkRepository(tx),
			Responses:  NewCandidateResponseRepository(tx),
		})
	})
}
