package dbx_test

import (
	"context"
	"sync"
	"testing"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getHandles(t *testing.T, conn *fakeConn) []*dbx.Tx[int] {
	t.Helper()

	b := dbx.NewSelect("select v from t", dbx.ConnsOf(conn))
	handles, err := dbx.GetTx(ctxBg, b, dbx.ScalarMapper[int]())
	require.NoError(t, err)

	return collectHandles(handles)
}

var ctxBg = context.Background()

func TestThreeRowsYieldFourHandles(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}, {2}, {3}}}

	handles := getHandles(t, conn)

	require.Len(t, handles, 4)
	for i, want := range []int{1, 2, 3} {
		assert.True(t, handles[i].IsValue())
		assert.Equal(t, want, handles[i].Value())
	}
	assert.True(t, handles[3].IsCompleted())
}

func TestCommitOnCompletionHandleFiresPhysicalCommitOnce(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}, {2}, {3}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 4)

	// counter starts at 0: the first finalization crosses the threshold
	require.NoError(t, handles[3].Commit(ctxBg))
	assert.Equal(t, int32(1), conn.commits.Load())

	// the remaining handles are finalized afterwards: no second physical call
	require.NoError(t, handles[0].Commit(ctxBg))
	require.NoError(t, handles[1].Rollback(ctxBg))
	require.NoError(t, handles[2].Commit(ctxBg))
	assert.Equal(t, int32(1), conn.commits.Load())
	assert.Equal(t, int32(0), conn.rollbacks.Load())
}

func TestRepeatedFinalizationOnSameHandleIsNoop(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 2)

	require.NoError(t, handles[0].Commit(ctxBg))
	require.NoError(t, handles[0].Commit(ctxBg))
	require.NoError(t, handles[0].Rollback(ctxBg))

	assert.Equal(t, int32(1), conn.commits.Load())
	assert.Equal(t, int32(0), conn.rollbacks.Load())
}

func TestRollbackFiresPhysicalRollback(t *testing.T) {
	conn := &fakeConn{queryErr: assert.AnError}

	handles := getHandles(t, conn)
	require.Len(t, handles, 1)
	require.True(t, handles[0].IsError())
	assert.ErrorIs(t, handles[0].Err(), assert.AnError)

	require.NoError(t, handles[0].Rollback(ctxBg))
	assert.Equal(t, int32(1), conn.rollbacks.Load())
	assert.Equal(t, int32(0), conn.commits.Load())
}

func TestRaisedBarrierWaitsForAllConsumers(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}, {2}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 3)

	handles[0].Barrier().Raise(int64(len(handles)))

	// finalize all but one: physical action must not have fired yet
	require.NoError(t, handles[0].Commit(ctxBg))
	require.NoError(t, handles[1].Commit(ctxBg))
	assert.Equal(t, int32(0), conn.commits.Load())

	require.NoError(t, handles[2].Commit(ctxBg))
	assert.Equal(t, int32(1), conn.commits.Load())
}

func TestConcurrentFinalizationFiresExactlyOnce(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}, {2}, {3}, {4}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 5)

	handles[0].Barrier().Raise(int64(len(handles)))

	var wg sync.WaitGroup
	for _, handle := range handles {
		handle := handle
		wg.Add(1)
		go func() {
			defer wg.Done()
			// repeated calls from the same consumer must not double-count
			_ = handle.Commit(ctxBg)
			_ = handle.Commit(ctxBg)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), conn.commits.Load())
}

func TestMixedIntentsFirstAcrossThresholdDecides(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 2)

	// counter at 0: the rollback crosses the threshold and decides
	require.NoError(t, handles[0].Rollback(ctxBg))
	require.NoError(t, handles[1].Commit(ctxBg))

	assert.Equal(t, int32(1), conn.rollbacks.Load())
	assert.Equal(t, int32(0), conn.commits.Load())
}

func TestPhysicalCommitFailureSurfacesToFinalizingCaller(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}}, commitErr: assert.AnError}

	handles := getHandles(t, conn)
	require.Len(t, handles, 2)

	err := handles[0].Commit(ctxBg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	// the flag already flipped: no retry through the same handle
	require.NoError(t, handles[0].Commit(ctxBg))
	assert.Equal(t, int32(1), conn.commits.Load())
}

func TestHandleExposesSharedConnection(t *testing.T) {
	conn := &fakeConn{rows: [][]any{{1}}}

	handles := getHandles(t, conn)
	require.Len(t, handles, 2)

	assert.Same(t, conn, handles[0].Connection())
	assert.Same(t, handles[0].Barrier(), handles[1].Barrier())
}
