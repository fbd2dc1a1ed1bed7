package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// ContentTranslationRepository persists free-form localized copy.
type ContentTranslationRepository interface {
	ListByKey(ctx context.Context, key string) ([]models.ContentTranslation, error)
	Upsert(ctx context.Context, content *models.ContentTranslation) error
}

type contentTranslationRepository struct {
	db *gorm.DB
}

// NewContentTranslationRepository constructs the content repository.
func NewContentTranslationRepository(db *gorm.DB) ContentTranslationRepository {
	return &contentTranslationRepository{db: db}
}

func (r *contentTranslationRepository) ListByKey(ctx context.Context, key string) ([]models.ContentTranslation, error) {
	var items []models.ContentTranslation
	if err := r.db.WithContext(ctx).Where("content_key = ?", key).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentTranslationRepository) Upsert(ctx context.Context, content *models.ContentTranslation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_key"}, {Name: "language_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(content).Error
	return translateError(err)
}
