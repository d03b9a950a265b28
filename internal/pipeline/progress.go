package pipeline

// Step names reported in progress events.
const (
	StepIngest     = "ingest"
	StepSynthesize = "synthesize"
	StepReconcile  = "reconcile"
	StepSeed       = "seed"
	StepList       = "list_events"
	StepComplete   = "complete"
)

// ProgressEvent represents a progress update during an agent run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when agent progress occurs
type ProgressCallback func(event ProgressEvent)

// emit calls the progress callback if configured
func (a *Agent) emit(runID, step, message string, content any) {
	if a.OnProgress != nil {
		a.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID,
			Content: content,
		})
	}
}
