package database

import (
	"context"
	"time"
)

// Executor runs validated queries against a warehouse and returns the rows
// as column-name maps. It exists for the step after a query is accepted;
// nothing upstream of acceptance touches a live connection.
type Executor struct {
	db      DB
	timeout time.Duration
}

// NewExecutor creates an Executor. timeout bounds each query; zero means
// no executor-level deadline beyond the caller's context.
func NewExecutor(db DB, timeout time.Duration) *Executor {
	return &Executor{db: db, timeout: timeout}
}

// Execute runs sql and scans the full result set. Errors come back as
// *DBError with the driver's kind mapping intact.
func (e *Executor) Execute(ctx context.Context, sql string) ([]map[string]any, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := e.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return ScanRows(rows)
}
