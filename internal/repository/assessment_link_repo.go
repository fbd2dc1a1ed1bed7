package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// AssessmentLinkRepository persists invitation links.
type AssessmentLinkRepository interface {
	Create(ctx context.Context, link *models.AssessmentLink) error
	GetByToken(ctx context.Context, token string) (models.AssessmentLink, error)
	ListByCandidate(ctx context.Context, candidateID uint) ([]models.AssessmentLink, error)
	RevokeOutstanding(ctx context.Context, candidateID uint, at time.Time) (int64, error)
	RecordAttempt(ctx context.Context, id uint, at time.Time, maxAttempts int) error
}

type assessmentLinkRepository struct {
	db *gorm.DB
}

// NewAssessmentLinkRepository constructs the link repository.
func NewAssessmentLinkRepository(db *gorm.DB) AssessmentLinkRepository {
	return &assessmentLinkRepository{db: db}
}

func (r *assessmentLinkRepository) Create(ctx context.Context, link *models.AssessmentLink) error {
	return translateError(r.db.WithContext(ctx).Omit("Candidate").Create(link).Error)
}

func (r *assessmentLinkRepository) GetByToken(ctx context.Context, token string) (models.AssessmentLink, error) {
	var link models.AssessmentLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		return models.AssessmentLink{}, translateError(err)
	}
	return link, nil
}

func (r *assessmentLinkRepository) ListByCandidate(ctx context.Context, candidateID uint) ([]models.AssessmentLink, error) {
	var links []models.AssessmentLink
	if err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC, id DESC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// RevokeOutstanding marks every unexpired, unrevoked link of the candidate as revoked.
func (r *assessmentLinkRepository) RevokeOutstanding(ctx context.Context, candidateID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.AssessmentLink{}).
		Where("candidate_id = ? AND revoked_at IS NULL AND expires_at > ?", candidateID, at).
		Update("revoked_at", at)
	return result.RowsAffected, result.Error
}

// RecordAttempt increments the attempt counter. With maxAttempts > 0 the increment only
// succeeds while attempts remain; ErrStaleState is returned otherwise.
func (r *assessmentLinkRepository) RecordAttempt(ctx context.Context, id uint, at time.Time, maxAttempts int) error {
	query := r.db.WithContext(ctx).Model(&models.AssessmentLink{}).Where("id = ?", id)
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}

	result := query.Updates(map[string]interface{}{
		"attempt_count": gorm.Expr("attempt_count + 1"),
		"last_used_at":  at,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
