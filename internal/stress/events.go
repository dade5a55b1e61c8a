// Package stress drives reproducible allocation workloads against
// isolated runtime contexts, in parallel, and verifies every context
// comes out leak-free. The workbench uses it for soak runs; tests use
// it as an end-to-end exercise of the collector.
package stress

// Status captures progress state of one context's run.
type Status string

const (
	// StatusQueued indicates the run is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the run is mid-frame.
	StatusWorking Status = "working"
	// StatusDone indicates the run finished clean.
	StatusDone Status = "done"
	// StatusError indicates the run failed or leaked.
	StatusError Status = "error"
)

// Event reports per-frame progress for one context.
type Event struct {
	Context   int
	Scenario  string
	Frame     int // 1-based; 0 on lifecycle transitions
	Frames    int
	Status    Status
	Live      int
	Dirty     int
	Collected int
	Err       error
}

// EventSink consumes progress events.
type EventSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

// OnEvent implements EventSink.
func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
