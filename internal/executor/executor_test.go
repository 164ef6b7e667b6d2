package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO widgets (name) VALUES ('alpha'), ('beta')").Error)
	return New(db, zap.NewNop())
}

func TestExecuteSelect(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "SELECT id, name FROM widgets ORDER BY id", nil)
	require.Equal(t, KindRows, out.Kind)
	assert.Equal(t, []string{"id", "name"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "alpha", out.Rows[0]["name"])
}

func TestExecuteSelectEmpty(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "SELECT * FROM widgets WHERE name = 'nope'", nil)
	assert.Equal(t, KindEmpty, out.Kind)
	assert.NotEmpty(t, out.Message)
}

func TestExecuteInsert(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "INSERT INTO widgets (name) VALUES ('gamma')", nil)
	require.Equal(t, KindAffected, out.Kind)
	assert.Equal(t, int64(1), out.Affected)
}

func TestExecuteParams(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "SELECT name FROM widgets WHERE name = ?", []any{"beta"})
	require.Equal(t, KindRows, out.Kind)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "beta", out.Rows[0]["name"])
}

func TestExecuteBadSQL(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "SELECT nope FROM missing", nil)
	assert.Equal(t, KindError, out.Kind)
	assert.NotEmpty(t, out.Message)
}

func TestExecuteEmptyQuery(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "   ", nil)
	assert.Equal(t, KindError, out.Kind)
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("SELECT 1"))
	assert.True(t, returnsRows("  select * from x"))
	assert.True(t, returnsRows("WITH t AS (SELECT 1) SELECT * FROM t"))
	assert.True(t, returnsRows("SHOW TABLES"))
	assert.False(t, returnsRows("INSERT INTO x VALUES (1)"))
	assert.False(t, returnsRows("UPDATE x SET a = 1"))
}

func TestExecuteWithDeadlineFastQuery(t *testing.T) {
	e := newTestExecutor(t)

	out, timedOut, pending := e.ExecuteWithDeadline(context.Background(), "SELECT 1 AS one", nil, 5*time.Second)
	assert.False(t, timedOut)
	assert.Nil(t, pending)
	assert.Equal(t, KindRows, out.Kind)
}

func TestExecuteWithDeadlineSlowQueryEscalates(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	slow := &slowRunner{Executor: New(db, zap.NewNop()), delay: 100 * time.Millisecond}

	pending := make(chan Outcome, 1)
	go func() {
		pending <- slow.run(context.Background())
	}()

	// emulate the escalation branch: nothing arrives before the deadline
	timer := time.NewTimer(10 * time.Millisecond)
	defer timer.Stop()
	select {
	case <-pending:
		t.Fatal("query should not have finished yet")
	case <-timer.C:
	}

	// the outcome still lands on the channel afterwards
	select {
	case out := <-pending:
		assert.Equal(t, KindRows, out.Kind)
	case <-time.After(time.Second):
		t.Fatal("pending outcome never arrived")
	}
}

type slowRunner struct {
	*Executor
	delay time.Duration
}

func (s *slowRunner) run(ctx context.Context) Outcome {
	time.Sleep(s.delay)
	return s.Execute(ctx, "SELECT 1", nil)
}
