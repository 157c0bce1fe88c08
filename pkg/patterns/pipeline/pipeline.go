package pipeline

import (
	"context"
	"fmt"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/logx"
)

// A Pipeline helps orchestrate multiple pipeline steps over transaction
// handles.
type Pipeline[T any] struct {
	Name   string
	stages []Stage[T]
}

// NewPipeline creates a new pipeline including the stages as configured.
func NewPipeline[T any](name string, stages []Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{name, stages}
}

// Process pipes a transaction handle through the pipeline.
// Parameters:
//   - ctx (context.Context): Processing context. Used for tracing.
//   - tx (*dbx.Tx[T]): Transaction handle to process.
//
// Returns:
//   - error: If any stage fails, the remaining stages are skipped and the
//     stage error is returned.
func (p *Pipeline[T]) Process(ctx context.Context, tx *dbx.Tx[T]) error {
	workerID, _ := ctx.Value(workerIDKey).(string)
	pipelineName, _ := ctx.Value(pipelineNameKey).(string)
	logx.GetLogger().LogInfo(ctx, buildPipelineStartLog(workerID, pipelineName))

	// route the handle through all pipeline stages, break on error
	for _, stage := range p.stages {
		if err := stage.Process(ctx, tx); err != nil {
			return err
		}
	}

	return nil
}

func buildPipelineStartLog(workerID string, pipelineName string) string {
	logMessage := "Starting "

	if pipelineName != "" {
		logMessage += fmt.Sprintf("Pipeline: %s, ", pipelineName)
	}
	if workerID != "" {
		logMessage += fmt.Sprintf("Worker: %s, ", workerID)
	}

	return logMessage + "processing handle"
}
