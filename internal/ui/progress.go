package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"refflow/internal/analysis"
)

type progressModel struct {
	title   string
	events  <-chan analysis.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	pass    int
	passes  int
	stage   analysis.Stage
	width   int
	done    bool
}

type fileItem struct {
	path   string
	status string
	pass   int // last pass that finished this file
}

type eventMsg analysis.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders analysis progress.
// The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan analysis.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(analysis.Event(msg))
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
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) header() string {
	header := m.title
	switch {
	case m.stage == analysis.StageReport:
		header = fmt.Sprintf("%s (reporting)", header)
	case m.pass > 0:
		header = fmt.Sprintf("%s (pass %d, at most %d)", header, m.pass, m.passes)
	}
	if m.done {
		return "done: " + header
	}
	return m.spinner.View() + " " + header
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, truncate(item.path, nameWidth))
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

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev analysis.Event) tea.Cmd {
	m.stage = ev.Stage
	if ev.Pass > m.pass {
		m.pass = ev.Pass
	}
	if ev.Passes > 0 {
		m.passes = ev.Passes
	}
	if ev.File == "" {
		if ev.Stage == analysis.StageReport && ev.Status == analysis.StatusDone {
			return m.prog.SetPercent(1.0)
		}
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	switch ev.Status {
	case analysis.StatusWorking:
		item.status = fmt.Sprintf("pass %d", ev.Pass)
	case analysis.StatusDone:
		item.status = "done"
		item.pass = ev.Pass
	case analysis.StatusError:
		item.status = "error"
	case analysis.StatusQueued:
		item.status = "queued"
	}
	return m.prog.SetPercent(m.percent())
}

// percent is the share of files finished in the current pass.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 || m.pass == 0 {
		return 0
	}
	finished := 0
	for _, item := range m.items {
		if item.pass >= m.pass || item.status == "error" {
			finished++
		}
	}
	return float64(finished) / float64(len(m.items))
}

func styleStatus(status string) lipgloss.Style {
	switch {
	case status == "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case status == "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case strings.HasPrefix(status, "pass"):
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
	return runewidth.Truncate(value, width, "...")
}

// Finished reports whether m is a progress model that saw its event stream
// close, as opposed to one the user interrupted.
func Finished(m tea.Model) bool {
	pm, ok := m.(*progressModel)
	return ok && pm.done
}
