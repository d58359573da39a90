package models

// BatchEventKind discriminates batch runner events.
type BatchEventKind string

const (
	BatchEventResult    BatchEventKind = "result"
	BatchEventError     BatchEventKind = "error"
	BatchEventProgress  BatchEventKind = "progress"
	BatchEventCompleted BatchEventKind = "completed"
)

// BatchEvent is one progress notification from a batch run. Result events
// carry the scan outcome for Code; error events carry Err; the single
// completed event carries every successful result. Completed/Total track
// progress in completion order on every event.
type BatchEvent struct {
	Kind      BatchEventKind
	Code      string
	Result    *OptimalTimingResult
	Err       string
	Completed int
	Total     int
	Results   []*OptimalTimingResult
}

// BatchStatus is a point-in-time view of the active (or last) batch run.
type BatchStatus struct {
	Running   bool
	Completed int
	Total     int
	Failed    int
}
