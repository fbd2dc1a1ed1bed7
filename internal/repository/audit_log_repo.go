package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	ActorID     *uint
	CandidateID *uint
	Action      string
	EntityType  string
	Since       *time.Time
	Page        int
	PageSize    int
}

// AuditLogRepository persists the operator audit trail. Entries are append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.CandidateID != nil {
		query = query.Where("candidate_id = ?", *filter.CandidateID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.AuditLog
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
