package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// CandidateFilter narrows candidate listings.
type CandidateFilter struct {
	ProgramID      *uint
	Status         string
	Country        string
	AreaOfInterest string
	Language       string
	Search         string
	Page           int
	PageSize       int
}

// CandidateRepository persists candidates. Status changes go through TransitionStatus only.
type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id uint) (models.Candidate, error)
	List(ctx context.Context, filter CandidateFilter) ([]models.Candidate, int64, error)
	ListAll(ctx context.Context, programID *uint) ([]models.Candidate, error)
	UpdateNotes(ctx context.Context, id uint, notes string) error
	TransitionStatus(ctx context.Context, id uint, from, to models.CandidateStatus, updates map[string]interface{}) error
	Touch(ctx context.Context, id uint, status models.CandidateStatus, updates map[string]interface{}) error
}

type candidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository constructs the candidate repository.
func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	return translateError(r.db.WithContext(ctx).Create(candidate).Error)
}

func (r *candidateRepository) GetByID(ctx context.Context, id uint) (models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return models.Candidate{}, translateError(err)
	}
	return candidate, nil
}

func (r *candidateRepository) List(ctx context.Context, filter CandidateFilter) ([]models.Candidate, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Candidate{})
	if filter.ProgramID != nil {
		query = query.Where("program_id = ?", *filter.ProgramID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.AreaOfInterest != "" {
		query = query.Where("area_of_interest = ?", filter.AreaOfInterest)
	}
	if filter.Language != "" {
		query = query.Where("preferred_language = ?", filter.Language)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var candidates []models.Candidate
	if err := query.Order("created_at DESC, id DESC").Find(&candidates).Error; err != nil {
		return nil, 0, err
	}

	return candidates, total, nil
}

func (r *candidateRepository) ListAll(ctx context.Context, programID *uint) ([]models.Candidate, error) {
	query := r.db.WithContext(ctx).Model(&models.Candidate{})
	if programID != nil {
		query = query.Where("program_id = ?", *programID)
	}

	var candidates []models.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *candidateRepository) UpdateNotes(ctx context.Context, id uint, notes string) error {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Update("admin_notes", notes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus moves the candidate from -> to only while the stored status still equals from.
func (r *candidateRepository) TransitionStatus(ctx context.Context, id uint, from, to models.CandidateStatus, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": to}
	for key, value := range updates {
		values[key] = value
	}
	return r.conditionalUpdate(ctx, id, from, values)
}

// Touch writes columns on a candidate whose status still equals status, without changing it.
func (r *candidateRepository) Touch(ctx context.Context, id uint, status models.CandidateStatus, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conditionalUpdate(ctx, id, status, updates)
}

func (r *candidateRepository) conditionalUpdate(ctx context.Context, id uint, expected models.CandidateStatus, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStaleState
}
