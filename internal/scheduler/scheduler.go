package scheduler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"reportbot/internal/config"
	"reportbot/internal/executor"
	"reportbot/internal/models"
	"reportbot/internal/report"
	"reportbot/internal/repository"
)

// ErrUnknownAction is returned for an unrecognized job control action.
var ErrUnknownAction = errors.New("unknown action")

// Mailer delivers scheduled report results.
type Mailer interface {
	SendReport(to, subject string, shaped report.Shaped) error
	SendErrorNotification(to, jobID, reason string) error
}

// Runner executes scheduled SQL.
type Runner interface {
	Execute(ctx context.Context, query string, params []any) executor.Outcome
}

// Scheduler runs persisted report jobs. Due jobs are picked up by a poll
// loop, so jobs survive restarts and a missed tick only delays a run until
// the next poll.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	jobs     *repository.ReportJobRepository
	runner   Runner
	mailer   Mailer
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

func New(cfg config.SchedulerConfig, jobs *repository.ReportJobRepository, runner Runner, mailer Mailer, logger *zap.Logger) *Scheduler {
	location := cfg.Location()
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		cfg:      cfg,
		jobs:     jobs,
		runner:   runner,
		mailer:   mailer,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

// Start begins polling for due jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting report scheduler",
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.String("timezone", s.location.String()))

	spec := fmt.Sprintf("@every %s", s.cfg.PollInterval)
	s.cron.AddFunc(spec, func() {
		s.pollDueJobs()
	})

	s.cron.Start()
}

// Stop halts polling and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Report scheduler stopped")
}

func (s *Scheduler) pollDueJobs() {
	defer s.recoverFromPanic("pollDueJobs")

	due, err := s.jobs.FindDue(s.now())
	if err != nil {
		s.logger.Error("Polling due jobs failed", zap.Error(err))
		return
	}

	for _, job := range due {
		if !s.tryAcquire(job.JobID) {
			// previous run of this job is still going, drop this tick
			s.logger.Debug("Skipping overlapping run", zap.String("job_id", job.JobID))
			continue
		}

		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release(job.JobID)
			s.runJob(job)
		}()
	}
}

func (s *Scheduler) runJob(job models.ReportJob) {
	defer s.recoverFromPanic("runJob:" + job.JobID)

	s.logger.Info("Running scheduled report",
		zap.String("job_id", job.JobID),
		zap.String("user", job.UserEmail))

	ranAt := s.now()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.QueryTimeout)
	defer cancel()

	out := s.runner.Execute(ctx, job.Query, nil)

	status := models.JobStatusSuccess
	if out.Kind == executor.KindError || out.Kind == executor.KindEmpty {
		// no rows is not worth a report mail, tell the user instead
		if out.Kind == executor.KindError {
			status = models.JobStatusError
		}
		s.logger.Warn("Scheduled report produced nothing to deliver",
			zap.String("job_id", job.JobID), zap.String("reason", out.Message))
		if err := s.mailer.SendErrorNotification(job.UserEmail, job.JobID, out.Message); err != nil {
			s.logger.Error("Sending failure mail failed", zap.String("job_id", job.JobID), zap.Error(err))
		}
	} else {
		shaped, err := report.ShapeOutcome(out)
		if err != nil {
			status = models.JobStatusError
			s.logger.Error("Shaping scheduled result failed", zap.String("job_id", job.JobID), zap.Error(err))
		} else {
			subject := fmt.Sprintf("Your scheduled report %s", job.JobID)
			if err := s.mailer.SendReport(job.UserEmail, subject, shaped); err != nil {
				status = models.JobStatusError
				s.logger.Error("Sending report mail failed", zap.String("job_id", job.JobID), zap.Error(err))
			}
		}
	}

	var next *time.Time
	if job.Recurring {
		n := nextDaily(job.RunAt, s.now())
		next = &n
	}
	if err := s.jobs.MarkRun(job.JobID, ranAt, status, next); err != nil {
		s.logger.Error("Recording job run failed", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

// Schedule persists a new report job and returns its identifier.
func (s *Scheduler) Schedule(query, email string, runAt time.Time, recurring bool) (string, error) {
	jobID := newJobID(runAt.In(s.location))
	runAt = runAt.In(s.location)

	job := &models.ReportJob{
		JobID:       jobID,
		Query:       query,
		UserEmail:   email,
		RunAt:       runAt,
		NextRunTime: &runAt,
		Recurring:   recurring,
	}
	if err := s.jobs.Create(job); err != nil {
		return "", fmt.Errorf("persisting job failed: %w", err)
	}

	s.logger.Info("Scheduled report",
		zap.String("job_id", jobID),
		zap.Time("run_at", runAt),
		zap.Bool("recurring", recurring))
	return jobID, nil
}

// ListJobs returns every job owned by the given user.
func (s *Scheduler) ListJobs(email string) ([]models.ReportJob, error) {
	return s.jobs.ListByOwner(email)
}

// ControlJob applies a pause, resume or delete action to a job the caller
// owns. Resume pushes the stored run time forward a day at a time until it
// lands in the future.
func (s *Scheduler) ControlJob(jobID, email, action string) error {
	switch action {
	case "pause":
		return s.jobs.SetNextRunTime(jobID, email, nil)
	case "resume":
		job, err := s.jobs.FindOwned(jobID, email)
		if err != nil {
			return err
		}
		next := nextDaily(job.RunAt, s.now())
		return s.jobs.SetNextRunTime(jobID, email, &next)
	case "delete":
		return s.jobs.Delete(jobID, email)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (s *Scheduler) tryAcquire(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, busy := s.inFlight[jobID]; busy {
		return false
	}
	s.inFlight[jobID] = struct{}{}
	return true
}

func (s *Scheduler) release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, jobID)
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Scheduler job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}

// nextDaily advances base by whole days until it is after now. Keeps the
// original time of day.
func nextDaily(base, now time.Time) time.Time {
	next := base
	for !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func newJobID(runAt time.Time) string {
	suffix := make([]byte, 3)
	rand.Read(suffix)
	return fmt.Sprintf("report_%s_%s", runAt.Format("20060102_150405"), hex.EncodeToString(suffix))
}
