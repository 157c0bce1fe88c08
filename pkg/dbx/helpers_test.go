package dbx_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
)

// fakeRows - in-memory cursor over pre-canned rows.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}

	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		switch target := d.(type) {
		case *int:
			*target = row[i].(int)
		case *string:
			*target = row[i].(string)
		case *any:
			*target = row[i]
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}

	return nil
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Close() {}

type executedQuery struct {
	sql  string
	args []any
}

// fakeConn - records every query run and physical finalization.
type fakeConn struct {
	mu       sync.Mutex
	executed []executedQuery

	rows     [][]any // returned for every query run
	queryErr error
	rowsErr  error

	commitErr   error
	rollbackErr error

	commits   atomic.Int32
	rollbacks atomic.Int32
	releases  atomic.Int32
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	c.mu.Lock()
	c.executed = append(c.executed, executedQuery{sql: query, args: args})
	c.mu.Unlock()

	if c.queryErr != nil {
		return nil, c.queryErr
	}

	return &fakeRows{rows: c.rows, err: c.rowsErr}, nil
}

func (c *fakeConn) Commit(ctx context.Context) error {
	c.commits.Add(1)
	return c.commitErr
}

func (c *fakeConn) Rollback(ctx context.Context) error {
	c.rollbacks.Add(1)
	return c.rollbackErr
}

func (c *fakeConn) Release() {
	c.releases.Add(1)
}

func (c *fakeConn) executedQueries() []executedQuery {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]executedQuery, len(c.executed))
	copy(out, c.executed)

	return out
}

// countingSource wraps a ConnSource counting how many elements were pulled.
func countingSource(source dbx.ConnSource, pulls *atomic.Int32) dbx.ConnSource {
	return func(ctx context.Context) (dbx.Connection, bool, error) {
		pulls.Add(1)
		return source(ctx)
	}
}

func collectEvents[T any](events <-chan dbx.Event[T]) []dbx.Event[T] {
	var out []dbx.Event[T]
	for event := range events {
		out = append(out, event)
	}

	return out
}

func collectHandles[T any](handles <-chan *dbx.Tx[T]) []*dbx.Tx[T] {
	var out []*dbx.Tx[T]
	for handle := range handles {
		out = append(out, handle)
	}

	return out
}
