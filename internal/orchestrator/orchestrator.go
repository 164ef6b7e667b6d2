package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reportbot/internal/executor"
	"reportbot/internal/planner"
	"reportbot/internal/report"
)

// Request is one natural language report request.
type Request struct {
	Text      string `json:"text"`
	UserEmail string `json:"-"`
}

// Scheduled describes a job that was persisted for later execution.
type Scheduled struct {
	JobID      string    `json:"job_id"`
	RunAt      time.Time `json:"run_at"`
	Timezone   string    `json:"timezone"`
	Recurring  bool      `json:"recurring"`
	Confidence float64   `json:"confidence"`
}

// Processing points at a background room the caller can watch for the
// result of a long-running query.
type Processing struct {
	Room string `json:"room"`
}

// Result is the outcome of analyzing a request. Exactly one of Report,
// Processing or Scheduled is set, according to Intent and query runtime.
type Result struct {
	Intent      string         `json:"intent"`
	Query       string         `json:"query,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	Report      *report.Shaped `json:"report,omitempty"`
	Processing  *Processing    `json:"processing,omitempty"`
	Scheduled   *Scheduled     `json:"scheduled,omitempty"`
}

// Planner covers the language understanding steps.
type Planner interface {
	ClassifyIntent(ctx context.Context, text string) string
	PlanQuery(ctx context.Context, text string) planner.Plan
	PlanSchedule(ctx context.Context, text string) planner.Schedule
}

// Runner executes planned SQL with an escalation deadline.
type Runner interface {
	ExecuteWithDeadline(ctx context.Context, query string, params []any, timeout time.Duration) (executor.Outcome, bool, <-chan executor.Outcome)
}

// RoomAttacher adopts an already-running query into a watchable room.
type RoomAttacher interface {
	Attach(room string, pending <-chan executor.Outcome)
}

// JobScheduler persists report jobs for later delivery.
type JobScheduler interface {
	Schedule(query, email string, runAt time.Time, recurring bool) (string, error)
}

// Orchestrator drives a request through classification, planning and
// either immediate execution or scheduling.
type Orchestrator struct {
	planner   Planner
	runner    Runner
	rooms     RoomAttacher
	scheduler JobScheduler
	timeout   time.Duration
	logger    *zap.Logger
}

func New(p Planner, runner Runner, rooms RoomAttacher, scheduler JobScheduler, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		planner:   p,
		runner:    runner,
		rooms:     rooms,
		scheduler: scheduler,
		timeout:   timeout,
		logger:    logger,
	}
}

// Analyze runs the full pipeline for one request.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if req.UserEmail == "" {
		return nil, &ValidationError{Field: "user email", Reason: "must be provided"}
	}

	intent := o.planner.ClassifyIntent(ctx, text)
	o.logger.Info("Classified request",
		zap.String("intent", intent),
		zap.String("user", req.UserEmail))

	// plan before the intent gate so refusals surface their explanation
	// even when the intent could not be classified
	plan := o.planner.PlanQuery(ctx, text)
	if plan.Query == "" {
		return nil, &PlanningError{Explanation: plan.Explanation}
	}

	if intent == planner.IntentUnknown {
		return nil, &IntentError{Text: text}
	}

	switch intent {
	case planner.IntentSchedule:
		return o.schedule(ctx, text, req.UserEmail, plan)
	default:
		return o.runNow(ctx, plan)
	}
}

func (o *Orchestrator) runNow(ctx context.Context, plan planner.Plan) (*Result, error) {
	out, timedOut, pending := o.runner.ExecuteWithDeadline(ctx, plan.Query, nil, o.timeout)

	result := &Result{
		Intent:      planner.IntentRunNow,
		Query:       plan.Query,
		Explanation: plan.Explanation,
	}

	if timedOut {
		room := uuid.NewString()
		o.rooms.Attach(room, pending)
		o.logger.Info("Query escalated to background room", zap.String("room", room))
		result.Processing = &Processing{Room: room}
		return result, nil
	}

	shaped, err := report.ShapeOutcome(out)
	if err != nil {
		return nil, err
	}
	result.Report = &shaped
	return result, nil
}

func (o *Orchestrator) schedule(ctx context.Context, text, email string, plan planner.Plan) (*Result, error) {
	sched := o.planner.PlanSchedule(ctx, text)

	// a delivery address in the request wins over the header identity
	deliverTo := email
	if sched.Email != "" {
		deliverTo = sched.Email
	}

	jobID, err := o.scheduler.Schedule(plan.Query, deliverTo, sched.RunAt, sched.Recurring)
	if err != nil {
		return nil, &SchedulingError{Err: err}
	}

	return &Result{
		Intent:      planner.IntentSchedule,
		Query:       plan.Query,
		Explanation: plan.Explanation,
		Scheduled: &Scheduled{
			JobID:      jobID,
			RunAt:      sched.RunAt,
			Timezone:   sched.RunAt.Location().String(),
			Recurring:  sched.Recurring,
			Confidence: sched.Confidence,
		},
	}, nil
}
