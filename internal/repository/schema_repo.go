package repository

import (
	"gorm.io/gorm"

	"reportbot/internal/models"
)

// SchemaRepository stores rendered schema documents and their embeddings.
type SchemaRepository struct {
	db *gorm.DB
}

func NewSchemaRepository(db *gorm.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// ReplaceAll swaps the whole document set in one transaction: full delete
// plus reinsert, never a partial patch.
func (r *SchemaRepository) ReplaceAll(docs []models.SchemaEmbedding) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.SchemaEmbedding{}).Error; err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		for i := range docs {
			docs[i].Position = i
		}
		return tx.Create(&docs).Error
	})
}

// ListOrdered returns all documents in insertion order.
func (r *SchemaRepository) ListOrdered() ([]models.SchemaEmbedding, error) {
	var docs []models.SchemaEmbedding
	err := r.db.Order("position ASC").Find(&docs).Error
	return docs, err
}

func (r *SchemaRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.SchemaEmbedding{}).Count(&count).Error
	return count, err
}
