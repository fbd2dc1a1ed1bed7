package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// EmailTemplateRepository persists localized email templates.
type EmailTemplateRepository interface {
	List(ctx context.Context) ([]models.EmailTemplate, error)
	ListByName(ctx context.Context, name string, activeOnly bool) ([]models.EmailTemplate, error)
	Upsert(ctx context.Context, template *models.EmailTemplate) error
}

type emailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository constructs the template repository.
func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func (r *emailTemplateRepository) List(ctx context.Context) ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	if err := r.db.WithContext(ctx).Order("template_name ASC, language_code ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *emailTemplateRepository) ListByName(ctx context.Context, name string, activeOnly bool) ([]models.EmailTemplate, error) {
	query := r.db.WithContext(ctx).Where("template_name = ?", name)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var templates []models.EmailTemplate
	if err := query.Order("id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Upsert keeps exactly one row per (template_name, language_code).
func (r *emailTemplateRepository) Upsert(ctx context.Context, template *models.EmailTemplate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "template_name"}, {Name: "language_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"subject", "html_body", "text_body", "placeholders", "is_active", "updated_at"}),
	}).Create(template).Error
	return translateError(err)
}
