package dbx

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marcodd23/go-stream-db/pkg/logx"
)

// SelectBuilder accumulates the configuration of one parameterized query
// execution: the parsed template, the connection source, and the
// parameter bindings in exactly one of the mutually exclusive input
// modes. Configuration errors are sticky and reported by the terminal
// operations before any I/O starts.
//
// A builder configures a single execution: the terminal operations
// consume its parameter stream.
type SelectBuilder struct {
	template Template
	conns    ConnSource
	params   paramAccumulator
	err      error
}

// NewSelect - SelectBuilder constructor. The SQL text is parsed once,
// here; the resulting template is immutable.
func NewSelect(sql string, conns ConnSource) *SelectBuilder {
	return &SelectBuilder{template: ParseTemplate(sql), conns: conns}
}

// Template - the parsed query template.
func (b *SelectBuilder) Template() Template {
	return b.template
}

// Err - the first configuration error recorded by the fluent calls, nil
// if the configuration is valid so far.
func (b *SelectBuilder) Err() error {
	return b.err
}

func (b *SelectBuilder) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// WithParameter appends one named binding (named-list mode). Fails the
// configuration if batches or streams were already supplied.
func (b *SelectBuilder) WithParameter(name string, value any) *SelectBuilder {
	b.fail(b.params.addNamed(name, value))
	return b
}

// WithBatch appends one pre-formed parameter batch (stream mode). Fails
// the configuration if named parameters were already supplied.
func (b *SelectBuilder) WithBatch(values ...any) *SelectBuilder {
	b.fail(b.params.addBatch(Batch(values)))
	return b
}

// WithStream concatenates an externally supplied batch sequence (stream
// mode), in call order. Fails the configuration if named parameters were
// already supplied.
func (b *SelectBuilder) WithStream(seq BatchSeq) *SelectBuilder {
	b.fail(b.params.addStream(seq))
	return b
}

// WithValues appends shorthand positional values: the count must be a
// positive multiple of the template parameter count, every value must be
// a named binding when the template declares named parameters, and the
// values are regrouped into batches of exactly the parameter count. An
// empty call is a no-op.
func (b *SelectBuilder) WithValues(values ...any) *SelectBuilder {
	b.fail(b.params.addValues(b.template, values...))
	return b
}

// Get executes the configured query and returns the lazy event stream:
// every mapped row as a value event, in order, then exactly one terminal
// event. The connection is taken from the source with first-available,
// error-if-none semantics and released when the stream terminates.
// Configuration errors are returned here, before any I/O.
func Get[T any](ctx context.Context, b *SelectBuilder, mapRow RowMapper[T]) (<-chan Event[T], error) {
	return GetWith(ctx, b, Execute[T], mapRow)
}

// GetWith - Get with a custom execution adapter.
func GetWith[T any](ctx context.Context, b *SelectBuilder, execute ExecuteFunc[T], mapRow RowMapper[T]) (<-chan Event[T], error) {
	conn, batches, execID, err := b.prepare(ctx)
	if err != nil {
		return nil, err
	}

	events := Materialize(execute(ctx, conn, b.template, batches, mapRow))

	out := make(chan Event[T])
	go func() {
		defer close(out)
		defer conn.Release()

		for event := range events {
			select {
			case out <- event:
			case <-ctx.Done():
				// executor unblocks on the same cancellation; drain so it
				// can terminate, then release the connection
				drain(events)
				logx.GetLogger().LogDebug(ctx, fmt.Sprintf("query execution %s cancelled, connection released", execID))

				return
			}
		}

		logx.GetLogger().LogDebug(ctx, fmt.Sprintf("query execution %s terminated, connection released", execID))
	}()

	return out, nil
}

// GetTx executes the configured query transactionally: one connection and
// one commit barrier for the whole execution, and one transaction handle
// per event. The handles decide the commit/rollback; the connection is
// not auto-released.
func GetTx[T any](ctx context.Context, b *SelectBuilder, mapRow RowMapper[T]) (<-chan *Tx[T], error) {
	return GetTxWith(ctx, b, Execute[T], mapRow)
}

// GetTxWith - GetTx with a custom execution adapter.
func GetTxWith[T any](ctx context.Context, b *SelectBuilder, execute ExecuteFunc[T], mapRow RowMapper[T]) (<-chan *Tx[T], error) {
	conn, batches, execID, err := b.prepare(ctx)
	if err != nil {
		return nil, err
	}

	barrier := NewCommitBarrier(conn)
	events := Materialize(execute(ctx, conn, b.template, batches, mapRow))

	out := make(chan *Tx[T])
	go func() {
		defer close(out)

		for event := range events {
			select {
			case out <- NewTx(barrier, event):
			case <-ctx.Done():
				// undelivered handles are dropped; the transaction stays
				// open until a delivered handle finalizes it or the pool
				// reclaims the connection
				drain(events)
				logx.GetLogger().LogWarning(ctx, fmt.Sprintf("transactional execution %s cancelled, transaction left unfinalized", execID))

				return
			}
		}

		logx.GetLogger().LogDebug(ctx, fmt.Sprintf("transactional execution %s produced all handles", execID))
	}()

	return out, nil
}

// drain discards the remaining events of a cancelled execution so the
// executor goroutine can terminate. The executor stops producing on the
// same cancelled context, so this is bounded.
func drain[T any](events <-chan Event[T]) {
	for range events {
	}
}

// prepare resolves the parameter configuration and acquires the single
// connection of the execution. All configuration errors surface here,
// before execution starts.
func (b *SelectBuilder) prepare(ctx context.Context) (Connection, BatchSeq, string, error) {
	if b.err != nil {
		return nil, nil, "", b.err
	}

	batches := b.params.resolve(b.template)

	conn, err := FirstConnection(ctx, b.conns)
	if err != nil {
		return nil, nil, "", err
	}

	execID := uuid.NewString()
	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("starting query execution %s: %s", execID, b.template.SQL()))

	return conn, batches, execID, nil
}
