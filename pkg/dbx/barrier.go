package dbx

import (
	"context"
	"sync/atomic"

	"github.com/marcodd23/go-stream-db/pkg/errorx"
)

// CommitBarrier gates the exactly-once physical commit or rollback of the
// single connection shared by every transaction handle of one execution.
//
// The counter models how many finalization acknowledgements are still
// outstanding before the physical action may run. It starts at zero, so
// the first acknowledgement from any handle crosses the threshold and
// fires the physical action - unless a collaborator that dispatches the
// handles to several independent consumers raises the counter first with
// Raise.
type CommitBarrier struct {
	conn    Connection
	counter atomic.Int64
	fired   atomic.Bool
}

// NewCommitBarrier - CommitBarrier constructor. Created once per
// transactional execution, alongside connection acquisition.
func NewCommitBarrier(conn Connection) *CommitBarrier {
	return &CommitBarrier{conn: conn}
}

// Connection - the shared physical connection of the execution.
func (b *CommitBarrier) Connection() Connection {
	return b.conn
}

// Raise adds n outstanding acknowledgements. Call it before handing the
// handles of one execution to n independent consumers, so the physical
// action waits for the last of them.
func (b *CommitBarrier) Raise(n int64) {
	b.counter.Add(n)
}

// Outstanding - the current number of outstanding acknowledgements.
func (b *CommitBarrier) Outstanding() int64 {
	return b.counter.Load()
}

// acknowledge registers one finalization acknowledgement. When the
// decremented counter crosses the threshold the physical action runs,
// exactly once per execution. Whichever acknowledgement crosses the
// threshold decides between commit and rollback; there is no
// reconciliation of mixed intents across handles.
func (b *CommitBarrier) acknowledge(ctx context.Context, commit bool) error {
	if b.counter.Add(-1) > 0 {
		return nil
	}

	if !b.fired.CompareAndSwap(false, true) {
		return nil
	}

	if commit {
		if err := b.conn.Commit(ctx); err != nil {
			return errorx.NewDatabaseErrorWrapper(err, "error during transaction commit")
		}

		return nil
	}

	if err := b.conn.Rollback(ctx); err != nil {
		return errorx.NewDatabaseErrorWrapper(err, "error during transaction rollback")
	}

	return nil
}

// Tx correlates one result event with the shared connection and commit
// barrier of its execution. Each downstream consumer finalizes its handle
// independently with Commit or Rollback; a handle becomes inert after its
// first finalization call returns and every later call is a no-op.
type Tx[T any] struct {
	barrier *CommitBarrier
	event   Event[T]
	once    atomic.Bool
}

// NewTx wraps one result event into a transaction handle sharing the
// given barrier.
func NewTx[T any](barrier *CommitBarrier, event Event[T]) *Tx[T] {
	return &Tx[T]{barrier: barrier, event: event}
}

// IsValue reports whether the handle wraps a mapped row value.
func (tx *Tx[T]) IsValue() bool {
	return tx.event.IsValue()
}

// IsCompleted reports whether the handle wraps the successful terminal event.
func (tx *Tx[T]) IsCompleted() bool {
	return tx.event.IsCompleted()
}

// IsError reports whether the handle wraps the failure terminal event.
func (tx *Tx[T]) IsError() bool {
	return tx.event.IsError()
}

// Value - the mapped row value. Zero value unless IsValue.
func (tx *Tx[T]) Value() T {
	return tx.event.Value()
}

// Err - the execution error. Nil unless IsError.
func (tx *Tx[T]) Err() error {
	return tx.event.Err()
}

// Connection - read-only access to the shared physical connection, for
// caller-driven work against it before finalizing.
func (tx *Tx[T]) Connection() Connection {
	return tx.barrier.Connection()
}

// Barrier - the commit barrier shared by all handles of this execution.
func (tx *Tx[T]) Barrier() *CommitBarrier {
	return tx.barrier
}

// Commit finalizes this handle with commit intent. The first call on this
// handle wins: it decrements the shared barrier counter and, when the
// threshold is crossed, runs the physical commit, whose failure is
// returned to this caller. Every later call on this handle is a no-op.
func (tx *Tx[T]) Commit(ctx context.Context) error {
	if !tx.once.CompareAndSwap(false, true) {
		return nil
	}

	return tx.barrier.acknowledge(ctx, true)
}

// Rollback finalizes this handle with rollback intent. Symmetric to
// Commit, using the physical rollback operation.
func (tx *Tx[T]) Rollback(ctx context.Context) error {
	if !tx.once.CompareAndSwap(false, true) {
		return nil
	}

	return tx.barrier.acknowledge(ctx, false)
}
