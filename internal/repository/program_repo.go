package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// ProgramRepository persists programs and their stages.
type ProgramRepository interface {
	List(ctx context.Context) ([]models.Program, error)
	GetByID(ctx context.Context, id uint) (models.Program, error)
	GetBySlug(ctx context.Context, slug string) (models.Program, error)
	GetActive(ctx context.Context) (models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Activate(ctx context.Context, id uint) error
	ListStages(ctx context.Context, programID uint) ([]models.Stage, error)
	GetStage(ctx context.Context, id uint) (models.Stage, error)
	CreateStage(ctx context.Context, stage *models.Stage) error
	UpdateStage(ctx context.Context, stage *models.Stage) error
}

type programRepository struct {
	db *gorm.DB
}

// NewProgramRepository constructs a repository backed by GORM.
func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) List(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepository) GetByID(ctx context.Context, id uint) (models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).First(&program, id).Error; err != nil {
		return models.Program{}, translateError(err)
	}
	return program, nil
}

func (r *programRepository) GetBySlug(ctx context.Context, slug string) (models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&program).Error; err != nil {
		return models.Program{}, translateError(err)
	}
	return program, nil
}

func (r *programRepository) GetActive(ctx context.Context) (models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&program).Error; err != nil {
		return models.Program{}, translateError(err)
	}
	return program, nil
}

func (r *programRepository) Create(ctx context.Context, program *models.Program) error {
	return translateError(r.db.WithContext(ctx).Create(program).Error)
}

func (r *programRepository) Update(ctx context.Context, program *models.Program) error {
	return translateError(r.db.WithContext(ctx).Omit("Stages").Save(program).Error)
}

// Activate clears the current active program and marks id active in one transaction.
func (r *programRepository) Activate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Session(&gorm.Session{SkipHooks: true})
		if err := tx.Model(&models.Program{}).
			Where("is_active = ? AND id <> ?", true, id).
			Updates(map[string]interface{}{"is_active": false, "active_slot": nil}).Error; err != nil {
			return translateError(err)
		}

		result := tx.Model(&models.Program{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": true, "active_slot": true})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *programRepository) ListStages(ctx context.Context, programID uint) ([]models.Stage, error) {
	var stages []models.Stage
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("display_order ASC, stage_number ASC").
		Find(&stages).Error
	if err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *programRepository) GetStage(ctx context.Context, id uint) (models.Stage, error) {
	var stage models.Stage
	if err := r.db.WithContext(ctx).First(&stage, id).Error; err != nil {
		return models.Stage{}, translateError(err)
	}
	return stage, nil
}

func (r *programRepository) CreateStage(ctx context.Context, stage *models.Stage) error {
	return translateError(r.db.WithContext(ctx).Create(stage).Error)
}

func (r *programRepository) UpdateStage(ctx context.Context, stage *models.Stage) error {
	return translateError(r.db.WithContext(ctx).Omit("Questions").Save(stage).Error)
}
