package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"reportbot/internal/models"
)

// Migrate ensures all required tables exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		// Domain records queried by generated reports
		&models.Lead{},
		&models.Project{},
		&models.Address{},
		// Scheduler state
		&models.ReportJob{},
		// Schema retrieval index
		&models.SchemaEmbedding{},
	}
}
