package dbx

import (
	"context"

	"github.com/marcodd23/go-stream-db/pkg/errorx"
	"github.com/pkg/errors"
)

// ExecuteFunc is the query execution adapter contract: given one
// connection, the canonical parameter batch sequence, and a row mapper, it
// produces the raw lazy outcome of the execution - one query run per
// batch, in batch order.
type ExecuteFunc[T any] func(ctx context.Context, conn Connection, tpl Template, batches BatchSeq, mapRow RowMapper[T]) *Results[T]

// Execute is the default execution adapter, driving any Connection
// implementation. Values are delivered on an executor goroutine, not the
// caller's. An empty batch sequence implies a single run with zero
// parameters.
func Execute[T any](ctx context.Context, conn Connection, tpl Template, batches BatchSeq, mapRow RowMapper[T]) *Results[T] {
	values := make(chan T)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(values)

		ranOnce := false
		for batch, ok := batches(); ok; batch, ok = batches() {
			ranOnce = true
			if err := runBatch(ctx, conn, tpl, batch, mapRow, values); err != nil {
				errc <- err
				return
			}
		}

		if !ranOnce {
			if err := runBatch(ctx, conn, tpl, nil, mapRow, values); err != nil {
				errc <- err
			}
		}
	}()

	return &Results[T]{Values: values, Err: errc}
}

func runBatch[T any](ctx context.Context, conn Connection, tpl Template, batch Batch, mapRow RowMapper[T], values chan<- T) error {
	args, err := BindBatch(tpl, batch)
	if err != nil {
		return err
	}

	rows, err := conn.Query(ctx, tpl.ExecSQL(), args...)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		value, err := mapRow(rows)
		if err != nil {
			return errors.WithStack(err)
		}

		select {
		case values <- value:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return errors.WithStack(rows.Err())
}

// BindBatch turns one parameter batch into the positional argument list of
// a single query run. Named bindings are matched against the template's
// placeholder order, so a name occurring twice in the template is bound
// twice from the same value; raw values bind positionally.
func BindBatch(tpl Template, batch Batch) ([]any, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	if tpl.UsesNames() && allNamed(batch) {
		byName := make(map[string]any, len(batch))
		for _, entry := range batch {
			param := entry.(Param)
			byName[param.Name] = param.Value
		}

		args := make([]any, 0, len(tpl.Names()))
		for _, name := range tpl.Names() {
			value, found := byName[name]
			if !found {
				return nil, errorx.NewDatabaseError("no binding supplied for parameter ':%s'", name)
			}
			args = append(args, value)
		}

		return args, nil
	}

	args := make([]any, len(batch))
	for i, entry := range batch {
		if param, ok := entry.(Param); ok {
			args[i] = param.Value
		} else {
			args[i] = entry
		}
	}

	return args, nil
}

func allNamed(batch Batch) bool {
	for _, entry := range batch {
		param, ok := entry.(Param)
		if !ok || !param.HasName() {
			return false
		}
	}

	return true
}
