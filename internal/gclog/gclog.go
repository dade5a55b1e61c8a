// Package gclog publishes collector events on the process log. The
// runtime core stays log-free and exposes hooks; this package is the
// adapter the workbench installs behind them.
package gclog

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"stride/internal/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("stride.gc")

// Init configures the backend. Verbosity follows the backend's scale:
// 0 logs collections, 1 adds per-cycle reports, 2 adds frame noise.
func Init(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// Reporter logs every strongly connected component the detector finds
// and forwards it to Next when one is installed.
type Reporter struct {
	Next vm.CycleReporter
}

// ReportCycle implements vm.CycleReporter.
func (r *Reporter) ReportCycle(members []vm.CycleMember) {
	log.Noticef("cycle of %d: %s", len(members), formatMembers(members))
	if r.Next != nil {
		r.Next.ReportCycle(members)
	}
}

// formatMembers renders kind-tagged ids, truncated past eight members.
func formatMembers(members []vm.CycleMember) string {
	var sb strings.Builder
	for i, m := range members {
		if i == 8 {
			fmt.Fprintf(&sb, " +%d more", len(members)-i)
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s#%d", m.Kind, m.ID)
	}
	return sb.String()
}

// LogCollect records one collection run.
func LogCollect(stats vm.CollectStats) {
	log.Infof("collect: %s", stats)
	for _, p := range stats.Phases.Phases {
		if p.Note != "" {
			log.Debugf("phase %s: %.1fus (%s)", p.Name, p.DurationUS, p.Note)
		} else {
			log.Debugf("phase %s: %.1fus", p.Name, p.DurationUS)
		}
	}
}

// LogFrame records the frame accounting at a frame boundary.
func LogFrame(frame int, stats vm.GCFrameStats) {
	log.Debugf("frame %d: gc=%dus budget=%dus dirty=%d",
		frame, stats.GCTimeUs, stats.BudgetUs, stats.DirtyObjects)
}
