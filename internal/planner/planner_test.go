package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportbot/internal/schema"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakeSearcher struct {
	matches []schema.Match
	err     error
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]schema.Match, error) {
	return f.matches, f.err
}

func newTestPlanner(c *fakeCompleter, s *fakeSearcher) *Planner {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	p := New(c, s, loc, zap.NewNop())
	p.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 0, 0, 0, loc)
	}
	return p
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		response string
		err      error
		want     string
	}{
		{"run_now", nil, IntentRunNow},
		{`"schedule"`, nil, IntentSchedule},
		{"  RUN_NOW\n", nil, IntentRunNow},
		{"The intent is: schedule", nil, IntentSchedule},
		{"no idea", nil, IntentUnknown},
		{"", errors.New("model down"), IntentUnknown},
	}
	for _, tt := range tests {
		p := newTestPlanner(&fakeCompleter{response: tt.response, err: tt.err}, &fakeSearcher{})
		assert.Equal(t, tt.want, p.ClassifyIntent(context.Background(), "show me leads"))
	}
}

func TestPlanQueryIncludesSchemaContext(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"sql_query": "SELECT * FROM leads", "explanation": "All leads."}`,
	}
	searcher := &fakeSearcher{matches: []schema.Match{
		{TableName: "leads", Content: "Table: leads", Similarity: 0.9},
	}}
	p := newTestPlanner(completer, searcher)

	plan := p.PlanQuery(context.Background(), "show me all leads")
	assert.Equal(t, "SELECT * FROM leads", plan.Query)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Table: leads")
	assert.Contains(t, completer.prompts[0], "show me all leads")
}

func TestPlanQueryDegradesToSentinel(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
		searcher  *fakeSearcher
	}{
		{"search failure", &fakeCompleter{}, &fakeSearcher{err: errors.New("no index")}},
		{"model failure", &fakeCompleter{err: errors.New("model down")}, &fakeSearcher{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(tt.completer, tt.searcher)

			plan := p.PlanQuery(context.Background(), "show me all leads")
			assert.Equal(t, "SELECT 1", plan.Query)
			assert.NotEmpty(t, plan.Explanation)
			assert.Empty(t, plan.Parameters)
		})
	}
}

func TestPlanScheduleFutureTime(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"schedule_time": "2026-03-10T22:00:00", "email": "x@example.com", "recurring": true, "confidence": 0.95}`,
	}
	p := newTestPlanner(completer, &fakeSearcher{})

	sched := p.PlanSchedule(context.Background(), "email me the report at 10pm daily")
	assert.Equal(t, 22, sched.RunAt.Hour())
	assert.Equal(t, 10, sched.RunAt.Day())
	assert.Equal(t, "x@example.com", sched.Email)
	assert.True(t, sched.Recurring)
	assert.InDelta(t, 0.95, sched.Confidence, 0.001)
}

func TestPlanSchedulePastTimeMovesToNextDay(t *testing.T) {
	// now is fixed at 14:00, so 09:00 has already passed today
	completer := &fakeCompleter{
		response: `{"schedule_time": "2026-03-10T09:00:00", "email": null, "recurring": false, "confidence": 0.9}`,
	}
	p := newTestPlanner(completer, &fakeSearcher{})

	sched := p.PlanSchedule(context.Background(), "report at 9am")
	assert.Equal(t, 11, sched.RunAt.Day())
	assert.Equal(t, 9, sched.RunAt.Hour())
}

func TestPlanScheduleKeepsExplicitOffset(t *testing.T) {
	// an offset-carrying time names an instant, it must not be relocalized
	// or shunted to the fallback
	completer := &fakeCompleter{
		response: `{"schedule_time": "2026-03-10T18:00:00+05:30", "email": null, "recurring": false, "confidence": 0.95}`,
	}
	p := newTestPlanner(completer, &fakeSearcher{})

	sched := p.PlanSchedule(context.Background(), "today at 6pm")
	assert.Equal(t, 18, sched.RunAt.Hour())
	assert.Equal(t, 10, sched.RunAt.Day())
	assert.InDelta(t, 0.95, sched.Confidence, 0.001)
}

func TestPlanScheduleExtractsEmbeddedJSON(t *testing.T) {
	completer := &fakeCompleter{
		response: "Here is the schedule:\n```json\n{\"schedule_time\": \"2026-03-11T08:30:00\", \"email\": null, \"recurring\": false, \"confidence\": 0.8}\n```",
	}
	p := newTestPlanner(completer, &fakeSearcher{})

	sched := p.PlanSchedule(context.Background(), "tomorrow morning")
	assert.Equal(t, 11, sched.RunAt.Day())
	assert.Equal(t, 8, sched.RunAt.Hour())
	assert.Equal(t, 30, sched.RunAt.Minute())
}

func TestPlanScheduleFallback(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"model error", &fakeCompleter{err: errors.New("model down")}},
		{"no json", &fakeCompleter{response: "tomorrow sounds good"}},
		{"bad time", &fakeCompleter{response: `{"schedule_time": "whenever", "confidence": 0.9}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(tt.completer, &fakeSearcher{})
			sched := p.PlanSchedule(context.Background(), "some request")

			// tomorrow at 10:00 with low confidence
			assert.Equal(t, 11, sched.RunAt.Day())
			assert.Equal(t, 10, sched.RunAt.Hour())
			assert.Equal(t, 0, sched.RunAt.Minute())
			assert.InDelta(t, 0.5, sched.Confidence, 0.001)
		})
	}
}
