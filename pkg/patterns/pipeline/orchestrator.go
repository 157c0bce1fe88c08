package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/logx"
)

type contextKey string

const (
	workerIDKey     contextKey = "workerID"
	pipelineNameKey contextKey = "pipelineName"
)

// Config holds the configuration for each pipeline, including its input
// channel of transaction handles and the number of workers.
type Config[T any] struct {
	Pipeline   *Pipeline[T]
	InputChan  chan *dbx.Tx[T]
	NumWorkers int
}

// Orchestrator orchestrates multiple pipelines, each with its own input
// channel and a configurable number of workers.
//
// Handles of one transactional execution are fanned out across the
// worker pool, so the orchestrator holds one guard acknowledgement per
// execution it dispatches handles for: before a handle is handed to a
// worker its barrier counter is raised, and after the input channel is
// drained the guard is released with the deciding intent - commit when
// every handle of that execution was processed successfully, rollback
// when any stage failed. The physical action therefore runs only after
// every worker has finalized its handles.
type Orchestrator[T any] struct {
	pipelines map[string]Config[T]
}

// NewOrchestrator creates a new Orchestrator.
//
// Parameters:
// - pipelines: A map where each key is a pipeline identifier and the value is the Config.
//
// Returns:
// - A new instance of Orchestrator.
func NewOrchestrator[T any](pipelines map[string]Config[T]) *Orchestrator[T] {
	return &Orchestrator[T]{
		pipelines: pipelines,
	}
}

// Execute runs all pipelines, each with its configured number of workers.
//
// This method starts one dispatcher and NumWorkers processing goroutines
// per pipeline. The dispatcher listens for transaction handles on the
// input channel, raises their commit barrier and hands them to the
// workers; workers route each handle through the pipeline and finalize
// it. When the input channel closes, the dispatcher waits for the
// workers and releases the guard acknowledgements.
//
// Parameters:
// - cancelCtx: A context that can be used to cancel the processing.
// - wg: A wait group to wait for all pipelines to complete.
func (o *Orchestrator[T]) Execute(cancelCtx context.Context, wg *sync.WaitGroup) {
	for name, config := range o.pipelines {
		wg.Add(1)

		go func(ctx context.Context, pipelineName string, pipelineConfig Config[T]) {
			defer wg.Done()
			o.runPipeline(ctx, pipelineName, pipelineConfig)
		}(cancelCtx, name, config)
	}
}

// runPipeline is the dispatcher loop of one pipeline. It owns the guard
// acknowledgements of every execution seen on the input channel.
func (o *Orchestrator[T]) runPipeline(ctx context.Context, pipelineName string, config Config[T]) {
	dispatchChan := make(chan *dbx.Tx[T])
	guards := newGuardSet[T]()

	var workerWg sync.WaitGroup

	for j := 0; j < config.NumWorkers; j++ {
		workerWg.Add(1)
		workerID := j

		go func(workerID int) {
			defer workerWg.Done()
			o.processHandles(ctx, pipelineName, workerID, config, dispatchChan, guards)
		}(workerID)
	}

	stop := func() {
		close(dispatchChan)
		workerWg.Wait()
		guards.abandon(pipelineName)
		logx.GetLogger().LogInfo(context.Background(), BuildPipelineLog(
			Stopped,
			"",
			pipelineName,
			"",
			"context cancellation",
		))
	}

	for {
		select {
		case <-ctx.Done():
			// Context was cancelled, stop processing
			stop()
			return
		case handle, ok := <-config.InputChan:
			if !ok {
				// Channel was closed: let the workers drain, then cast
				// the deciding acknowledgement per execution.
				close(dispatchChan)
				workerWg.Wait()
				guards.release(ctx, pipelineName)

				return
			}

			guards.track(handle.Barrier())
			handle.Barrier().Raise(1)

			select {
			case dispatchChan <- handle:
			case <-ctx.Done():
				stop()
				return
			}
		}
	}
}

// processHandles is the main loop of one worker goroutine. It routes
// each handle through the pipeline and finalizes it: commit intent on
// success, rollback intent on stage error.
func (o *Orchestrator[T]) processHandles(ctx context.Context, pipelineName string, workerID int, config Config[T], handles <-chan *dbx.Tx[T], guards *guardSet[T]) {
	for handle := range handles {
		// Add worker ID and pipeline name to the context
		handleCtx := context.WithValue(ctx, workerIDKey, strconv.Itoa(workerID))
		handleCtx = context.WithValue(handleCtx, pipelineNameKey, pipelineName)

		err := config.Pipeline.Process(handleCtx, handle)
		if err != nil {
			guards.markFailed(handle.Barrier())

			if finErr := handle.Rollback(handleCtx); finErr != nil {
				logx.GetLogger().LogError(handleCtx, "error finalizing handle after stage failure", finErr)
			}

			logx.GetLogger().LogInfo(context.Background(), BuildPipelineLog(
				Error,
				strconv.Itoa(workerID),
				pipelineName,
				"",
				fmt.Sprintf("error processing handle: %v", err),
			))

			continue
		}

		if finErr := handle.Commit(handleCtx); finErr != nil {
			logx.GetLogger().LogError(handleCtx, "error finalizing handle", finErr)
		}

		logx.GetLogger().LogInfo(context.Background(), BuildPipelineLog(
			Completed,
			strconv.Itoa(workerID),
			pipelineName,
			"",
			"completed processing handle",
		))
	}
}

// guardSet tracks one guard acknowledgement per execution dispatched by
// a pipeline. The guard keeps the commit barrier from firing while
// handles are still in flight; releasing it casts the deciding intent
// for the whole execution.
type guardSet[T any] struct {
	mu     sync.Mutex
	guards map[*dbx.CommitBarrier]*guardState
}

type guardState struct {
	failed atomic.Bool
}

func newGuardSet[T any]() *guardSet[T] {
	return &guardSet[T]{guards: make(map[*dbx.CommitBarrier]*guardState)}
}

// track raises one guard acknowledgement the first time a barrier is seen.
func (g *guardSet[T]) track(barrier *dbx.CommitBarrier) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.guards[barrier]; ok {
		return
	}

	barrier.Raise(1)
	g.guards[barrier] = &guardState{}
}

// markFailed records a stage failure for the execution of the given barrier.
func (g *guardSet[T]) markFailed(barrier *dbx.CommitBarrier) {
	g.mu.Lock()
	state, ok := g.guards[barrier]
	g.mu.Unlock()

	if ok {
		state.failed.Store(true)
	}
}

// release casts the guard acknowledgement of every tracked execution:
// commit when all of its handles were processed successfully, rollback
// otherwise.
func (g *guardSet[T]) release(ctx context.Context, pipelineName string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for barrier, state := range g.guards {
		guard := dbx.NewTx(barrier, dbx.CompletedEvent[T]())

		var err error
		if state.failed.Load() {
			err = guard.Rollback(ctx)
		} else {
			err = guard.Commit(ctx)
		}

		if err != nil {
			logx.GetLogger().LogError(ctx, fmt.Sprintf("Pipeline: %s, error finalizing transaction", pipelineName), err)
		}

		delete(g.guards, barrier)
	}
}

// abandon logs executions left with outstanding acknowledgements after a
// cancellation. Their transactions stay open until the pool reclaims the
// connection.
func (g *guardSet[T]) abandon(pipelineName string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for barrier := range g.guards {
		logx.GetLogger().LogWarning(context.Background(), fmt.Sprintf(
			"Pipeline: %s, stopped with %d outstanding acknowledgements, transaction left unfinalized",
			pipelineName, barrier.Outstanding()))

		delete(g.guards, barrier)
	}
}
