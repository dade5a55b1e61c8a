package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stride/internal/stress"
)

type stressModel struct {
	title   string
	events  <-chan stress.Event
	spinner spinner.Model
	prog    progress.Model
	items   []runItem
	index   map[string]int
	width   int
	done    bool
}

type runItem struct {
	label     string
	status    string
	frame     int
	frames    int
	live      int
	collected int
}

type eventMsg stress.Event
type doneMsg struct{}

// RunLabel names one (scenario, context) row the way the dashboard
// keys it.
func RunLabel(scenario string, ctx int) string {
	return fmt.Sprintf("%s #%d", scenario, ctx)
}

// NewStressModel returns a Bubble Tea model that renders one row per
// (scenario, context) run and an overall frame-progress bar. Labels fix
// the row order; events drive the rest.
func NewStressModel(title string, labels []string, events <-chan stress.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	items := make([]runItem, 0, len(labels))
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		items = append(items, runItem{label: label, status: "queued"})
		index[label] = i
	}
	return &stressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *stressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *stressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := stress.Event(msg)
		cmd := m.applyEvent(ev)
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *stressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 8
	labelWidth := 20
	detailWidth := m.width - statusWidth - labelWidth - 6
	if detailWidth < 16 {
		detailWidth = 16
	}

	for _, item := range m.items {
		label := truncate(item.label, labelWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		detail := ""
		if item.frames > 0 {
			detail = truncate(fmt.Sprintf("frame %d/%d  live %d  collected %d",
				item.frame, item.frames, item.live, item.collected), detailWidth)
		}
		line := fmt.Sprintf("  %s %-*s %s", statusStyled, labelWidth, label, detail)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *stressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *stressModel) applyEvent(ev stress.Event) tea.Cmd {
	idx, ok := m.index[RunLabel(ev.Scenario, ev.Context)]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = statusLabel(ev.Status)
	if ev.Frames > 0 {
		item.frames = ev.Frames
	}
	switch ev.Status {
	case stress.StatusWorking:
		item.frame = ev.Frame
		item.live = ev.Live
		item.collected = ev.Collected
	case stress.StatusDone, stress.StatusError:
		item.frame = item.frames
		item.collected = ev.Collected
	}

	// Overall progress is completed frames over total frames.
	totalProgress := 0.0
	for _, it := range m.items {
		switch {
		case it.status == "done" || it.status == "error":
			totalProgress += 1.0
		case it.frames > 0:
			totalProgress += float64(it.frame) / float64(it.frames)
		}
	}
	pct := totalProgress / float64(len(m.items))
	return m.prog.SetPercent(pct)
}

func statusLabel(status stress.Status) string {
	switch status {
	case stress.StatusQueued:
		return "queued"
	case stress.StatusWorking:
		return "running"
	case stress.StatusDone:
		return "done"
	case stress.StatusError:
		return "error"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "running":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
