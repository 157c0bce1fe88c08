package pipeline

import (
	"context"

	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/logx"
)

// Stage describes a pipeline stage a transaction handle can be routed
// through. Stages work against the handle's value and its shared
// connection; finalizing the handle stays with the orchestrator.
type Stage[T any] interface {
	// Process processes one transaction handle and returns an error once done.
	Process(context.Context, *dbx.Tx[T]) error
}

type NamedStage[T any] struct {
	Name string
	Stage[T]
}

func (s NamedStage[T]) Process(ctx context.Context, tx *dbx.Tx[T]) error {
	workerID, _ := ctx.Value(workerIDKey).(string)
	pipelineName, _ := ctx.Value(pipelineNameKey).(string)

	logx.GetLogger().LogInfo(ctx, BuildPipelineLog(Processing, workerID, pipelineName, s.Name, ""))

	return s.Stage.Process(ctx, tx)
}
