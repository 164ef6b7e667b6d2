package rooms

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportbot/internal/executor"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ string, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Status
	}
	return out
}

type fakeRunner struct {
	outcome executor.Outcome
}

func (f *fakeRunner) Execute(context.Context, string, []any) executor.Outcome {
	return f.outcome
}

func TestAttachPublishesOrderedTransitions(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, zap.NewNop())
	m.grace = 50 * time.Millisecond

	pending := make(chan executor.Outcome, 1)
	m.Attach("room-1", pending)
	pending <- executor.Outcome{
		Kind:    executor.KindRows,
		Columns: []string{"id"},
		Rows:    []map[string]any{{"id": 1}},
	}
	m.Wait()

	assert.Equal(t, []string{
		StatusStarted, StatusExecutingQuery, StatusProcessing, StatusCompleted,
	}, pub.statuses())
}

func TestAttachErrorOutcome(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, zap.NewNop())
	m.grace = 50 * time.Millisecond

	pending := make(chan executor.Outcome, 1)
	m.Attach("room-err", pending)
	pending <- executor.Outcome{Kind: executor.KindError, Message: "bad sql"}
	m.Wait()

	statuses := pub.statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, StatusError, statuses[len(statuses)-1])

	status, payload := m.Status("room-err")
	assert.Equal(t, StatusError, status)
	require.NotNil(t, payload)
	assert.Equal(t, "bad sql", payload.Message)

	last := pub.events[len(pub.events)-1]
	require.NotNil(t, last.Payload)
	assert.Equal(t, "bad sql", last.Payload.Message)
}

func TestStartRunsQuery(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, zap.NewNop())
	m.grace = 50 * time.Millisecond

	m.Start("room-2", "SELECT 1", nil, &fakeRunner{outcome: executor.Outcome{
		Kind:    executor.KindRows,
		Columns: []string{"one"},
		Rows:    []map[string]any{{"one": 1}},
	}})
	m.Wait()

	status, payload := m.Status("room-2")
	assert.Equal(t, StatusCompleted, status)
	require.NotNil(t, payload)
	assert.Len(t, payload.Rows, 1)
}

func TestStatusUnknownAfterGraceWindow(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(pub, zap.NewNop())
	m.grace = 20 * time.Millisecond

	pending := make(chan executor.Outcome, 1)
	m.Attach("room-3", pending)
	pending <- executor.Outcome{Kind: executor.KindEmpty, Message: "nothing"}
	m.Wait()

	// inside the grace window the terminal payload stays readable
	status, payload := m.Status("room-3")
	assert.Equal(t, StatusCompleted, status)
	require.NotNil(t, payload)
	assert.Equal(t, "nothing", payload.Message)

	assert.Eventually(t, func() bool {
		status, payload := m.Status("room-3")
		return status == StatusUnknown && payload == nil
	}, time.Second, 5*time.Millisecond)
}

func TestStatusUnknownRoom(t *testing.T) {
	m := NewManager(nil, zap.NewNop())
	status, payload := m.Status("never-existed")
	assert.Equal(t, StatusUnknown, status)
	assert.Nil(t, payload)
}
