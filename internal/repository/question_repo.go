package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// QuestionRepository persists questions and their translations.
type QuestionRepository interface {
	ListByStages(ctx context.Context, stageIDs []uint) ([]models.Question, error)
	GetByID(ctx context.Context, id uint) (models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	UpsertTranslation(ctx context.Context, translation *models.QuestionTranslation) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository constructs the question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListByStages(ctx context.Context, stageIDs []uint) ([]models.Question, error) {
	if len(stageIDs) == 0 {
		return []models.Question{}, nil
	}

	var questions []models.Question
	err := r.db.WithContext(ctx).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("stage_id IN ?", stageIDs).
		Order("stage_id ASC, sort_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&question, id).Error
	if err != nil {
		return models.Question{}, translateError(err)
	}
	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return translateError(r.db.WithContext(ctx).Create(question).Error)
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return translateError(r.db.WithContext(ctx).Omit("Translations").Save(question).Error)
}

// UpsertTranslation inserts or replaces the translation keyed by (question, language).
func (r *questionRepository) UpsertTranslation(ctx context.Context, translation *models.QuestionTranslation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}, {Name: "language_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "options", "correct_answer", "explanation", "updated_at"}),
	}).Create(translation).Error
	return translateError(err)
}
