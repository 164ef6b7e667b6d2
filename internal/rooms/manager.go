package rooms

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"reportbot/internal/executor"
	"reportbot/internal/report"
)

// Room lifecycle statuses, published in this order. Terminal statuses are
// Completed and Error.
const (
	StatusStarted        = "Started"
	StatusExecutingQuery = "ExecutingQuery"
	StatusProcessing     = "ProcessingData"
	StatusCompleted      = "Completed"
	StatusError          = "Error"
	StatusUnknown        = "unknown"
)

// GraceWindow is how long a finished room stays queryable before its
// status drops to unknown.
const GraceWindow = 5 * time.Second

// Event is one status update for a processing room.
type Event struct {
	Room    string         `json:"room"`
	Status  string         `json:"status"`
	Payload *report.Shaped `json:"payload,omitempty"`
}

// Publisher fans events out to whoever is watching a room.
type Publisher interface {
	Publish(room string, event Event)
}

// Runner executes a query to completion.
type Runner interface {
	Execute(ctx context.Context, query string, params []any) executor.Outcome
}

type roomState struct {
	status  string
	payload *report.Shaped
}

// Manager tracks background query rooms. Each room is driven by a single
// goroutine so its events arrive in order.
type Manager struct {
	mu        sync.Mutex
	rooms     map[string]*roomState
	publisher Publisher
	logger    *zap.Logger
	grace     time.Duration
	wg        sync.WaitGroup
}

func NewManager(publisher Publisher, logger *zap.Logger) *Manager {
	return &Manager{
		rooms:     make(map[string]*roomState),
		publisher: publisher,
		logger:    logger,
		grace:     GraceWindow,
	}
}

// Attach registers a room whose query is already running and drives it
// from the pending outcome channel. The room reports ExecutingQuery until
// the outcome lands.
func (m *Manager) Attach(room string, pending <-chan executor.Outcome) {
	m.setStatus(room, StatusStarted)
	m.publish(room, StatusStarted, nil)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.transition(room, StatusExecutingQuery)
		out := <-pending
		m.finish(room, out)
	}()
}

// Start registers a room and runs the query itself.
func (m *Manager) Start(room, query string, params []any, runner Runner) {
	m.setStatus(room, StatusStarted)
	m.publish(room, StatusStarted, nil)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.transition(room, StatusExecutingQuery)
		out := runner.Execute(context.Background(), query, params)
		m.finish(room, out)
	}()
}

func (m *Manager) finish(room string, out executor.Outcome) {
	m.transition(room, StatusProcessing)

	shaped, err := report.ShapeOutcome(out)
	if err != nil {
		m.logger.Error("Shaping room outcome failed", zap.String("room", room), zap.Error(err))
		shaped = report.Shaped{Type: report.TypeError, Message: err.Error()}
	}

	final := StatusCompleted
	if shaped.Type == report.TypeError {
		final = StatusError
	}
	m.mu.Lock()
	m.rooms[room] = &roomState{status: final, payload: &shaped}
	m.mu.Unlock()
	m.publish(room, final, &shaped)

	time.AfterFunc(m.grace, func() { m.remove(room) })
}

// Status reports a room's current status, with the terminal payload while
// the room is still within its grace window. Removed or never-seen rooms
// report unknown.
func (m *Manager) Status(room string) (string, *report.Shaped) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.rooms[room]; ok {
		return state.status, state.payload
	}
	return StatusUnknown, nil
}

// Wait blocks until every running room finishes. Used on shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) transition(room, status string) {
	m.setStatus(room, status)
	m.publish(room, status, nil)
}

func (m *Manager) setStatus(room, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room] = &roomState{status: status}
}

func (m *Manager) remove(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, room)
}

func (m *Manager) publish(room, status string, payload *report.Shaped) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(room, Event{Room: room, Status: status, Payload: payload})
}
