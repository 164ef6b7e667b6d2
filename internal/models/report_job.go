package models

import "time"

// Job run statuses recorded in last_status.
const (
	JobStatusPending = "Pending"
	JobStatusSuccess = "Success"
	JobStatusError   = "Error"
)

// ReportJob stores a scheduled report query. Rows survive restarts; the
// scheduler poll loop picks up any job whose next_run_time has passed.
type ReportJob struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	JobID       string     `gorm:"column:job_id;size:100;uniqueIndex" json:"id"`
	Query       string     `gorm:"column:query;type:text" json:"sql_query"`
	UserEmail   string     `gorm:"column:user_email;size:255;index" json:"user_email"`
	RunAt       time.Time  `gorm:"column:run_at" json:"run_at"`
	NextRunTime *time.Time `gorm:"column:next_run_time;index" json:"next_run_time"`
	Recurring   bool       `gorm:"column:recurring" json:"recurring"`
	LastRunTime *time.Time `gorm:"column:last_run_time" json:"last_run"`
	LastStatus  string     `gorm:"column:last_status;size:30;default:Pending" json:"last_status"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (ReportJob) TableName() string {
	return "report_jobs"
}

// Status derives the user-facing job status. A job with no pending trigger
// reads as "Completed" whether it ran or was paused; the row keeps run_at
// so resume can rebuild a future trigger.
func (j *ReportJob) Status() string {
	if j.NextRunTime != nil {
		return "Active"
	}
	return "Completed"
}
