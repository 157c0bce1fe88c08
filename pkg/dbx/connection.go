package dbx

import (
	"context"

	"github.com/marcodd23/go-stream-db/pkg/errorx"
)

// RowScan represents a row that can be mapped to dest fields trough Scan function.
type RowScan interface {
	Scan(dest ...any) error
}

// RowMapper maps the current row of a result set to a value.
type RowMapper[T any] func(row RowScan) (T, error)

// ScalarMapper - RowMapper for single-column results.
func ScalarMapper[T any]() RowMapper[T] {
	return func(row RowScan) (T, error) {
		var value T
		err := row.Scan(&value)

		return value, err
	}
}

// Rows is a minimal cursor over one query result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Connection is one physical database connection shared by every event of
// one execution. Commit and Rollback are the physical finalization
// operations gated by the commit barrier; Release returns the connection
// to its pool without finalizing, discarding any open transaction.
type Connection interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release()
}

// ConnSource lazily produces connections. Implementations may be
// infinite; each query execution consumes only the first element.
// Returns false when the source is exhausted.
type ConnSource func(ctx context.Context) (Connection, bool, error)

// ConnsOf - a ConnSource over a fixed set of connections, in order.
func ConnsOf(conns ...Connection) ConnSource {
	idx := 0

	return func(ctx context.Context) (Connection, bool, error) {
		if idx >= len(conns) {
			return nil, false, nil
		}

		conn := conns[idx]
		idx++

		return conn, true, nil
	}
}

// FirstConnection takes the first connection the source offers, with
// first-available, error-if-none semantics. Any further elements the
// source could produce stay unconsumed.
func FirstConnection(ctx context.Context, source ConnSource) (Connection, error) {
	if source == nil {
		return nil, errorx.NewConfigurationError("no connection source supplied")
	}

	conn, ok, err := source(ctx)
	if err != nil {
		return nil, errorx.NewConfigurationErrorWrapper(err, "error acquiring connection")
	}

	if !ok {
		return nil, errorx.NewConfigurationError("connection source produced no connection")
	}

	return conn, nil
}
