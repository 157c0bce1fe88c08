package pipeline

import "fmt"

// Status of a pipeline worker, used in structured pipeline log lines.
type Status string

const (
	Processing Status = "PROCESSING"
	Completed  Status = "COMPLETED"
	Error      Status = "ERROR"
	Stopped    Status = "STOPPED"
)

// BuildPipelineLog builds a uniform log line for pipeline and stage
// activity. Empty fields are omitted.
func BuildPipelineLog(status Status, workerID string, pipelineName string, stageName string, details string) string {
	logMessage := fmt.Sprintf("Status: %s, ", status)

	if pipelineName != "" {
		logMessage += fmt.Sprintf("Pipeline: %s, ", pipelineName)
	}
	if workerID != "" {
		logMessage += fmt.Sprintf("Worker: %s, ", workerID)
	}
	if stageName != "" {
		logMessage += fmt.Sprintf("Stage: %s, ", stageName)
	}
	if details != "" {
		logMessage += details
	}

	return logMessage
}
