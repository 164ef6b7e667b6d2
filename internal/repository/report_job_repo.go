package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"reportbot/internal/models"
)

// ErrJobNotFound is returned when a job id does not exist for the given
// owner. Acting on another user's job reports the same error.
var ErrJobNotFound = errors.New("job not found")

// ReportJobRepository handles persisted scheduled report jobs.
type ReportJobRepository struct {
	db *gorm.DB
}

func NewReportJobRepository(db *gorm.DB) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

func (r *ReportJobRepository) Create(job *models.ReportJob) error {
	return r.db.Create(job).Error
}

// FindDue returns jobs whose trigger time has passed. Missed fires pile up
// as a single due row, so a restart coalesces them into one run.
func (r *ReportJobRepository) FindDue(now time.Time) ([]models.ReportJob, error) {
	var jobs []models.ReportJob
	err := r.db.Where("next_run_time IS NOT NULL AND next_run_time <= ?", now).
		Order("next_run_time ASC").
		Find(&jobs).Error
	return jobs, err
}

// ListByOwner returns all jobs for a user, newest first.
func (r *ReportJobRepository) ListByOwner(userEmail string) ([]models.ReportJob, error) {
	var jobs []models.ReportJob
	err := r.db.Where("user_email = ?", userEmail).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// FindOwned loads a job by (jobID, userEmail).
func (r *ReportJobRepository) FindOwned(jobID, userEmail string) (*models.ReportJob, error) {
	var job models.ReportJob
	err := r.db.Where("job_id = ? AND user_email = ?", jobID, userEmail).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// SetNextRunTime updates the trigger time; nil suspends the trigger while
// keeping the job definition.
func (r *ReportJobRepository) SetNextRunTime(jobID, userEmail string, next *time.Time) error {
	res := r.db.Model(&models.ReportJob{}).
		Where("job_id = ? AND user_email = ?", jobID, userEmail).
		Update("next_run_time", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a job permanently.
func (r *ReportJobRepository) Delete(jobID, userEmail string) error {
	res := r.db.Where("job_id = ? AND user_email = ?", jobID, userEmail).
		Delete(&models.ReportJob{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkRun records the outcome of a fire and moves or clears the trigger.
func (r *ReportJobRepository) MarkRun(jobID string, ranAt time.Time, status string, next *time.Time) error {
	return r.db.Model(&models.ReportJob{}).
		Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"last_run_time": ranAt,
			"last_status":   status,
			"next_run_time": next,
		}).Error
}
