// Package observ provides lightweight phase timing for runtime work,
// reported in microseconds to match the frame-budget contract.
package observ

import (
	"fmt"
	"time"
)

// Phase records the duration and metadata of one timed phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the execution time of consecutive phases.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 4)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// PhaseReport is the serializable form of one finished phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationUS float64 `json:"duration_us" msgpack:"duration_us"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report aggregates all phases of one timer run.
type Report struct {
	TotalUS float64       `json:"total_us" msgpack:"total_us"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report returns the phase breakdown and total in microseconds.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationUS: durationToMicros(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalUS = durationToMicros(total)
	return report
}

// Summary returns a human-readable rendering of all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	out := "phases:\n"
	for _, p := range report.Phases {
		out += fmt.Sprintf("  %-12s %9.1f us", p.Name, p.DurationUS)
		if p.Note != "" {
			out += "  // " + p.Note
		}
		out += "\n"
	}
	out += fmt.Sprintf("  %-12s %9.1f us\n", "total", report.TotalUS)
	return out
}

func durationToMicros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
