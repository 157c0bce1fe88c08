package pipeline

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn records physical finalizations of one execution.
type stubConn struct {
	commits   atomic.Int32
	rollbacks atomic.Int32
}

func (c *stubConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	return nil, nil
}

func (c *stubConn) Commit(ctx context.Context) error {
	c.commits.Add(1)
	return nil
}

func (c *stubConn) Rollback(ctx context.Context) error {
	c.rollbacks.Add(1)
	return nil
}

func (c *stubConn) Release() {}

// collectStage records every value handle it processes.
type collectStage struct {
	mu     sync.Mutex
	values []string
}

func (s *collectStage) Process(ctx context.Context, tx *dbx.Tx[string]) error {
	if !tx.IsValue() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, tx.Value())

	return nil
}

func (s *collectStage) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]string(nil), s.values...)
	sort.Strings(out)

	return out
}

type failOnStage struct {
	failFor string
}

func (s failOnStage) Process(ctx context.Context, tx *dbx.Tx[string]) error {
	if tx.IsValue() && tx.Value() == s.failFor {
		return errors.Errorf("stage rejected value %q", tx.Value())
	}

	return nil
}

func feedHandles(barrier *dbx.CommitBarrier, input chan *dbx.Tx[string], values ...string) {
	for _, v := range values {
		input <- dbx.NewTx(barrier, dbx.ValueEvent(v))
	}
	input <- dbx.NewTx(barrier, dbx.CompletedEvent[string]())
}

func runOrchestrator(t *testing.T, config Config[string]) {
	t.Helper()

	var wg sync.WaitGroup
	orchestrator := NewOrchestrator(map[string]Config[string]{"test-pipeline": config})
	orchestrator.Execute(context.Background(), &wg)
	wg.Wait()
}

func TestOrchestratorCommitsOnceAfterAllHandles(t *testing.T) {
	conn := &stubConn{}
	barrier := dbx.NewCommitBarrier(conn)
	stage := &collectStage{}

	input := make(chan *dbx.Tx[string])
	go func() {
		feedHandles(barrier, input, "order-1", "order-2", "order-3")
		close(input)
	}()

	runOrchestrator(t, Config[string]{
		Pipeline:   NewPipeline("orders", []Stage[string]{NamedStage[string]{Name: "collect", Stage: stage}}),
		InputChan:  input,
		NumWorkers: 3,
	})

	assert.Equal(t, []string{"order-1", "order-2", "order-3"}, stage.seen())
	assert.Equal(t, int32(1), conn.commits.Load())
	assert.Equal(t, int32(0), conn.rollbacks.Load())
	assert.Equal(t, int64(0), barrier.Outstanding())
}

func TestOrchestratorRollsBackWhenAnyStageFails(t *testing.T) {
	conn := &stubConn{}
	barrier := dbx.NewCommitBarrier(conn)

	input := make(chan *dbx.Tx[string])
	go func() {
		feedHandles(barrier, input, "order-1", "order-2", "order-3")
		close(input)
	}()

	runOrchestrator(t, Config[string]{
		Pipeline:   NewPipeline("orders", []Stage[string]{failOnStage{failFor: "order-2"}}),
		InputChan:  input,
		NumWorkers: 2,
	})

	assert.Equal(t, int32(0), conn.commits.Load())
	assert.Equal(t, int32(1), conn.rollbacks.Load())
}

func TestOrchestratorFinalizesEachExecutionIndependently(t *testing.T) {
	connA := &stubConn{}
	connB := &stubConn{}
	barrierA := dbx.NewCommitBarrier(connA)
	barrierB := dbx.NewCommitBarrier(connB)

	// handles of two executions interleaved on the same input channel;
	// execution B carries the failing value
	input := make(chan *dbx.Tx[string])
	go func() {
		input <- dbx.NewTx(barrierA, dbx.ValueEvent("a-1"))
		input <- dbx.NewTx(barrierB, dbx.ValueEvent("b-1"))
		input <- dbx.NewTx(barrierA, dbx.ValueEvent("a-2"))
		input <- dbx.NewTx(barrierB, dbx.CompletedEvent[string]())
		input <- dbx.NewTx(barrierA, dbx.CompletedEvent[string]())
		close(input)
	}()

	runOrchestrator(t, Config[string]{
		Pipeline:   NewPipeline("mixed", []Stage[string]{failOnStage{failFor: "b-1"}}),
		InputChan:  input,
		NumWorkers: 2,
	})

	assert.Equal(t, int32(1), connA.commits.Load())
	assert.Equal(t, int32(0), connA.rollbacks.Load())
	assert.Equal(t, int32(0), connB.commits.Load())
	assert.Equal(t, int32(1), connB.rollbacks.Load())
}

func TestOrchestratorStopsOnContextCancellation(t *testing.T) {
	conn := &stubConn{}
	barrier := dbx.NewCommitBarrier(conn)

	ctx, cancel := context.WithCancel(context.Background())

	input := make(chan *dbx.Tx[string], 1)
	input <- dbx.NewTx(barrier, dbx.ValueEvent("order-1"))

	var wg sync.WaitGroup
	orchestrator := NewOrchestrator(map[string]Config[string]{
		"orders": {
			Pipeline:   NewPipeline("orders", []Stage[string]{&collectStage{}}),
			InputChan:  input,
			NumWorkers: 1,
		},
	})
	orchestrator.Execute(ctx, &wg)

	cancel()
	wg.Wait()

	// cancellation never finalizes on its own
	assert.Equal(t, int32(0), conn.commits.Load())
	assert.Equal(t, int32(0), conn.rollbacks.Load())
}

func TestPipelineStopsAtFirstFailingStage(t *testing.T) {
	after := &collectStage{}
	p := NewPipeline("orders", []Stage[string]{
		failOnStage{failFor: "order-1"},
		after,
	})

	conn := &stubConn{}
	tx := dbx.NewTx(dbx.NewCommitBarrier(conn), dbx.ValueEvent("order-1"))

	err := p.Process(context.Background(), tx)
	require.Error(t, err)
	assert.Empty(t, after.seen())
}
