package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// SimulationProfileRepository persists role-play personas.
type SimulationProfileRepository interface {
	ListByProgram(ctx context.Context, programID uint, enabledOnly bool) ([]models.SimulationProfile, error)
	GetByID(ctx context.Context, id uint) (models.SimulationProfile, error)
	Create(ctx context.Context, profile *models.SimulationProfile) error
	Update(ctx context.Context, profile *models.SimulationProfile) error
	UpsertTranslation(ctx context.Context, translation *models.ProfileTranslation) error
}

type simulationProfileRepository struct {
	db *gorm.DB
}

// NewSimulationProfileRepository constructs the persona repository.
func NewSimulationProfileRepository(db *gorm.DB) SimulationProfileRepository {
	return &simulationProfileRepository{db: db}
}

func (r *simulationProfileRepository) ListByProgram(ctx context.Context, programID uint, enabledOnly bool) ([]models.SimulationProfile, error) {
	query := r.db.WithContext(ctx).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("program_id = ?", programID)
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var profiles []models.SimulationProfile
	if err := query.Order("sort_order ASC, id ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *simulationProfileRepository) GetByID(ctx context.Context, id uint) (models.SimulationProfile, error) {
	var profile models.SimulationProfile
	err := r.db.WithContext(ctx).
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&profile, id).Error
	if err != nil {
		return models.SimulationProfile{}, translateError(err)
	}
	return profile, nil
}

func (r *simulationProfileRepository) Create(ctx context.Context, profile *models.SimulationProfile) error {
	return translateError(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *simulationProfileRepository) Update(ctx context.Context, profile *models.SimulationProfile) error {
	return translateError(r.db.WithContext(ctx).Omit("Translations").Save(profile).Error)
}

func (r *simulationProfileRepository) UpsertTranslation(ctx context.Context, translation *models.ProfileTranslation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}, {Name: "language_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"bio", "challenge_description", "objection_scenario", "updated_at"}),
	}).Create(translation).Error
	return translateError(err)
}
