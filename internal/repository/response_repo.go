package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// ResponseGrade carries the outcome of grading one response.
type ResponseGrade struct {
	Points     float64
	Note       string
	GradedBy   *uint
	GradedAt   time.Time
	AutoGraded bool
}

// CandidateResponseRepository persists raw answers and their grades.
type CandidateResponseRepository interface {
	Upsert(ctx context.Context, responses []models.CandidateResponse) error
	ListByCandidate(ctx context.Context, candidateID uint) ([]models.CandidateResponse, error)
	GetByID(ctx context.Context, id uint) (models.CandidateResponse, error)
	Grade(ctx context.Context, id uint, grade ResponseGrade) error
	SaveSuggestion(ctx context.Context, id uint, points float64, note string) error
}

type candidateResponseRepository struct {
	db *gorm.DB
}

// NewCandidateResponseRepository constructs the response repository.
func NewCandidateResponseRepository(db *gorm.DB) CandidateResponseRepository {
	return &candidateResponseRepository{db: db}
}

// Upsert stores answers keyed by (candidate, question); resubmitting replaces the answer and
// its grade.
func (r *candidateResponseRepository) Upsert(ctx context.Context, responses []models.CandidateResponse) error {
	if len(responses) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Omit("Question").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stage_id", "language_code", "answer", "selections", "points_awarded", "auto_graded",
			"grader_note", "graded_by", "graded_at", "suggested_points", "suggestion_note", "updated_at",
		}),
	}).Create(&responses).Error
	return translateError(err)
}

func (r *candidateResponseRepository) ListByCandidate(ctx context.Context, candidateID uint) ([]models.CandidateResponse, error) {
	var responses []models.CandidateResponse
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("stage_id ASC, question_id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *candidateResponseRepository) GetByID(ctx context.Context, id uint) (models.CandidateResponse, error) {
	var response models.CandidateResponse
	err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Translations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&response, id).Error
	if err != nil {
		return models.CandidateResponse{}, translateError(err)
	}
	return response, nil
}

func (r *candidateResponseRepository) Grade(ctx context.Context, id uint, grade ResponseGrade) error {
	result := r.db.WithContext(ctx).Model(&models.CandidateResponse{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"points_awarded": grade.Points,
			"grader_note":    grade.Note,
			"graded_by":      grade.GradedBy,
			"graded_at":      grade.GradedAt,
			"auto_graded":    grade.AutoGraded,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *candidateResponseRepository) SaveSuggestion(ctx context.Context, id uint, points float64, note string) error {
	result := r.db.WithContext(ctx).Model(&models.CandidateResponse{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"suggested_points": points, "suggestion_note": note})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
