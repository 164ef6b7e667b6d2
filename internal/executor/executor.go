package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutcomeKind discriminates what a finished query produced.
type OutcomeKind string

const (
	KindRows     OutcomeKind = "rows"
	KindAffected OutcomeKind = "affected"
	KindEmpty    OutcomeKind = "empty"
	KindError    OutcomeKind = "error"
)

// Outcome is the result of one query execution. Columns preserves the
// result set order so renderers don't depend on map iteration.
type Outcome struct {
	Kind     OutcomeKind
	Columns  []string
	Rows     []map[string]any
	Affected int64
	Message  string
}

// Executor runs planned SQL against the application database.
type Executor struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Executor {
	return &Executor{db: db, logger: logger}
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(query string) bool {
	head := strings.ToUpper(strings.Fields(strings.TrimSpace(query))[0])
	switch head {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH":
		return true
	}
	return false
}

// Execute runs the query to completion and reports its outcome. Database
// errors come back inside the Outcome, never as an error return, so every
// consumer handles them through the same shape.
func (e *Executor) Execute(ctx context.Context, query string, params []any) Outcome {
	if strings.TrimSpace(query) == "" {
		return Outcome{Kind: KindError, Message: "empty query"}
	}

	start := time.Now()
	var out Outcome
	if returnsRows(query) {
		out = e.executeRows(ctx, query, params)
	} else {
		out = e.executeExec(ctx, query, params)
	}

	e.logger.Info("Executed query",
		zap.String("kind", string(out.Kind)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (e *Executor) executeRows(ctx context.Context, query string, params []any) Outcome {
	sqlRows, err := e.db.WithContext(ctx).Raw(query, params...).Rows()
	if err != nil {
		return Outcome{Kind: KindError, Message: err.Error()}
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return Outcome{Kind: KindError, Message: err.Error()}
	}

	var rows []map[string]any
	for sqlRows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := sqlRows.Scan(pointers...); err != nil {
			return Outcome{Kind: KindError, Message: err.Error()}
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		rows = append(rows, row)
	}
	if err := sqlRows.Err(); err != nil {
		return Outcome{Kind: KindError, Message: err.Error()}
	}

	if len(rows) == 0 {
		return Outcome{Kind: KindEmpty, Columns: columns, Message: "Query executed successfully but returned no results."}
	}
	return Outcome{Kind: KindRows, Columns: columns, Rows: rows}
}

func (e *Executor) executeExec(ctx context.Context, query string, params []any) Outcome {
	result := e.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return Outcome{Kind: KindError, Message: result.Error.Error()}
	}
	return Outcome{
		Kind:     KindAffected,
		Affected: result.RowsAffected,
		Message:  fmt.Sprintf("Query executed successfully. %d row(s) affected.", result.RowsAffected),
	}
}

// normalizeValue makes driver values JSON friendly. MySQL hands text
// columns back as []byte.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// ExecuteWithDeadline runs the query in the background and waits up to
// timeout for completion. On a timely finish it returns the outcome with
// timedOut false and a nil channel. After the deadline the query keeps
// running and the eventual outcome arrives on the returned channel.
func (e *Executor) ExecuteWithDeadline(ctx context.Context, query string, params []any, timeout time.Duration) (Outcome, bool, <-chan Outcome) {
	pending := make(chan Outcome, 1)
	go func() {
		pending <- e.Execute(context.WithoutCancel(ctx), query, params)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-pending:
		return out, false, nil
	case <-timer.C:
		return Outcome{}, true, pending
	}
}
