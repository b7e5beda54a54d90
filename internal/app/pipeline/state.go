package pipeline

// State is the stage a request is in while a worker runs it. States are not
// persisted; the record status is the durable state.
type State string

const (
	StateReceived     State = "received"
	StateTranscribing State = "transcribing"
	StateClassifying  State = "classifying"
	StateSummarizing  State = "summarizing"
	StateValidating   State = "validating"
	StatePersisting   State = "persisting"
	StateNotifying    State = "notifying"
	StateDone         State = "done"
	StateFailed       State = "failed"
)
