package repository

import (
	"errors"

	"gorm.io/gorm"

	"reportbot/internal/models"
)

// ErrRecordNotFound is returned for lookups of missing domain records.
var ErrRecordNotFound = errors.New("record not found")

// RecordRepository handles plain CRUD for leads, projects and addresses.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) DB() *gorm.DB {
	return r.db
}

// ── Leads ─────────────────────────────────────────────────────────────

func (r *RecordRepository) ListLeads(limit int) ([]models.Lead, error) {
	var leads []models.Lead
	q := r.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&leads).Error
	return leads, err
}

func (r *RecordRepository) FindLead(id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.First(&lead, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *RecordRepository) CreateLead(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

func (r *RecordRepository) UpdateLead(id uint, updates map[string]interface{}) error {
	res := r.db.Model(&models.Lead{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) DeleteLead(id uint) error {
	res := r.db.Delete(&models.Lead{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ── Projects ──────────────────────────────────────────────────────────

func (r *RecordRepository) ListProjects(limit int) ([]models.Project, error) {
	var projects []models.Project
	q := r.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&projects).Error
	return projects, err
}

func (r *RecordRepository) CreateProject(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *RecordRepository) DeleteProject(id uint) error {
	res := r.db.Delete(&models.Project{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ── Addresses ─────────────────────────────────────────────────────────

func (r *RecordRepository) ListAddresses(limit int) ([]models.Address, error) {
	var addresses []models.Address
	q := r.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&addresses).Error
	return addresses, err
}

func (r *RecordRepository) CreateAddress(address *models.Address) error {
	return r.db.Create(address).Error
}

func (r *RecordRepository) DeleteAddress(id uint) error {
	res := r.db.Delete(&models.Address{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CreateBatch inserts an address, a project and a lead wired together in
// one transaction (bulk generation path).
func (r *RecordRepository) CreateBatch(address *models.Address, project *models.Project, lead *models.Lead) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(address).Error; err != nil {
			return err
		}
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		lead.AddressID = &address.ID
		lead.ProjectID = &project.ID
		return tx.Create(lead).Error
	})
}
