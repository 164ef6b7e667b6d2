package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportbot/internal/executor"
	"reportbot/internal/planner"
	"reportbot/internal/report"
)

type fakePlanner struct {
	intent   string
	plan     planner.Plan
	schedule planner.Schedule
}

func (f *fakePlanner) ClassifyIntent(context.Context, string) string {
	return f.intent
}

func (f *fakePlanner) PlanQuery(context.Context, string) planner.Plan {
	return f.plan
}

func (f *fakePlanner) PlanSchedule(context.Context, string) planner.Schedule {
	return f.schedule
}

type fakeRunner struct {
	outcome  executor.Outcome
	timedOut bool
}

func (f *fakeRunner) ExecuteWithDeadline(context.Context, string, []any, time.Duration) (executor.Outcome, bool, <-chan executor.Outcome) {
	if f.timedOut {
		pending := make(chan executor.Outcome, 1)
		pending <- f.outcome
		return executor.Outcome{}, true, pending
	}
	return f.outcome, false, nil
}

type fakeRooms struct {
	attached string
}

func (f *fakeRooms) Attach(room string, _ <-chan executor.Outcome) {
	f.attached = room
}

type fakeScheduler struct {
	jobID string
	err   error

	query     string
	email     string
	runAt     time.Time
	recurring bool
}

func (f *fakeScheduler) Schedule(query, email string, runAt time.Time, recurring bool) (string, error) {
	f.query, f.email, f.runAt, f.recurring = query, email, runAt, recurring
	return f.jobID, f.err
}

func newTestOrchestrator(p Planner, r Runner, rooms RoomAttacher, s JobScheduler) *Orchestrator {
	return New(p, r, rooms, s, 30*time.Second, zap.NewNop())
}

func TestAnalyzeValidation(t *testing.T) {
	o := newTestOrchestrator(&fakePlanner{}, &fakeRunner{}, &fakeRooms{}, &fakeScheduler{})

	_, err := o.Analyze(context.Background(), Request{Text: "  ", UserEmail: "a@example.com"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "text", validationErr.Field)

	_, err = o.Analyze(context.Background(), Request{Text: "show leads"})
	require.ErrorAs(t, err, &validationErr)
}

func TestAnalyzeUnknownIntent(t *testing.T) {
	o := newTestOrchestrator(
		&fakePlanner{
			intent: planner.IntentUnknown,
			plan:   planner.Plan{Query: "SELECT 1", Explanation: "Could not explain due to error."},
		},
		&fakeRunner{}, &fakeRooms{}, &fakeScheduler{})

	_, err := o.Analyze(context.Background(), Request{Text: "what's the weather", UserEmail: "a@example.com"})
	var intentErr *IntentError
	assert.ErrorAs(t, err, &intentErr)
}

func TestAnalyzeUnknownIntentRefusalKeepsExplanation(t *testing.T) {
	// a refusal surfaces its explanation even when the intent is unknown
	o := newTestOrchestrator(
		&fakePlanner{
			intent: planner.IntentUnknown,
			plan:   planner.Plan{Query: "", Explanation: "Destructive operations are not supported."},
		},
		&fakeRunner{}, &fakeRooms{}, &fakeScheduler{})

	_, err := o.Analyze(context.Background(), Request{Text: "drop the leads table", UserEmail: "a@example.com"})
	var planningErr *PlanningError
	require.ErrorAs(t, err, &planningErr)
	assert.Contains(t, planningErr.Explanation, "not supported")
}

func TestAnalyzeRunNowInline(t *testing.T) {
	o := newTestOrchestrator(
		&fakePlanner{
			intent: planner.IntentRunNow,
			plan:   planner.Plan{Query: "SELECT * FROM leads", Explanation: "All leads."},
		},
		&fakeRunner{outcome: executor.Outcome{
			Kind:    executor.KindRows,
			Columns: []string{"id"},
			Rows:    []map[string]any{{"id": 1}},
		}},
		&fakeRooms{}, &fakeScheduler{})

	result, err := o.Analyze(context.Background(), Request{Text: "show leads", UserEmail: "a@example.com"})
	require.NoError(t, err)

	assert.Equal(t, planner.IntentRunNow, result.Intent)
	require.NotNil(t, result.Report)
	assert.Equal(t, report.TypeRows, result.Report.Type)
	assert.Nil(t, result.Processing)
	assert.Nil(t, result.Scheduled)
}

func TestAnalyzeRunNowTimeoutEscalates(t *testing.T) {
	rooms := &fakeRooms{}
	o := newTestOrchestrator(
		&fakePlanner{
			intent: planner.IntentRunNow,
			plan:   planner.Plan{Query: "SELECT * FROM big_table"},
		},
		&fakeRunner{timedOut: true},
		rooms, &fakeScheduler{})

	result, err := o.Analyze(context.Background(), Request{Text: "huge report", UserEmail: "a@example.com"})
	require.NoError(t, err)

	require.NotNil(t, result.Processing)
	assert.NotEmpty(t, result.Processing.Room)
	assert.Equal(t, result.Processing.Room, rooms.attached)
	assert.Nil(t, result.Report)
}

func TestAnalyzeScheduleCreatesJob(t *testing.T) {
	runAt := time.Now().Add(8 * time.Hour)
	sched := &fakeScheduler{jobID: "report_20260310_220000_ab12cd"}
	o := newTestOrchestrator(
		&fakePlanner{
			intent:   planner.IntentSchedule,
			plan:     planner.Plan{Query: "SELECT * FROM leads"},
			schedule: planner.Schedule{RunAt: runAt, Recurring: true, Confidence: 0.9},
		},
		&fakeRunner{}, &fakeRooms{}, sched)

	result, err := o.Analyze(context.Background(), Request{Text: "email me leads at 10pm", UserEmail: "a@example.com"})
	require.NoError(t, err)

	require.NotNil(t, result.Scheduled)
	assert.Equal(t, "report_20260310_220000_ab12cd", result.Scheduled.JobID)
	assert.True(t, result.Scheduled.Recurring)
	assert.Equal(t, "a@example.com", sched.email)
	assert.Equal(t, "SELECT * FROM leads", sched.query)
}

func TestAnalyzeScheduleUsesExtractedEmail(t *testing.T) {
	sched := &fakeScheduler{jobID: "report_x"}
	o := newTestOrchestrator(
		&fakePlanner{
			intent:   planner.IntentSchedule,
			plan:     planner.Plan{Query: "SELECT 1"},
			schedule: planner.Schedule{RunAt: time.Now().Add(time.Hour), Email: "other@example.com"},
		},
		&fakeRunner{}, &fakeRooms{}, sched)

	_, err := o.Analyze(context.Background(), Request{Text: "send to other@example.com", UserEmail: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", sched.email)
}

func TestAnalyzeRefusalBecomesPlanningError(t *testing.T) {
	o := newTestOrchestrator(
		&fakePlanner{
			intent: planner.IntentRunNow,
			plan:   planner.Plan{Query: "", Explanation: "For safety reasons, destructive or data modification actions are not supported by this assistant."},
		},
		&fakeRunner{}, &fakeRooms{}, &fakeScheduler{})

	_, err := o.Analyze(context.Background(), Request{Text: "delete all leads", UserEmail: "a@example.com"})
	var planningErr *PlanningError
	require.ErrorAs(t, err, &planningErr)
	assert.Contains(t, planningErr.Explanation, "not supported")
}

func TestAnalyzeSchedulingFailure(t *testing.T) {
	sched := &fakeScheduler{err: assertError("db down")}
	o := newTestOrchestrator(
		&fakePlanner{
			intent:   planner.IntentSchedule,
			plan:     planner.Plan{Query: "SELECT 1"},
			schedule: planner.Schedule{RunAt: time.Now().Add(time.Hour)},
		},
		&fakeRunner{}, &fakeRooms{}, sched)

	_, err := o.Analyze(context.Background(), Request{Text: "later please", UserEmail: "a@example.com"})
	var schedulingErr *SchedulingError
	assert.ErrorAs(t, err, &schedulingErr)
}

type assertError string

func (e assertError) Error() string { return string(e) }
