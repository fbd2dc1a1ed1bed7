package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// Migrate creates or updates every pipeline table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
