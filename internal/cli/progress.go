package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
)

// progressEvent carries one ingestion progress update.
type progressEvent struct {
	Done  int
	Total int
}

// ingestDoneMsg signals the ingestion goroutine has finished.
type ingestDoneMsg struct {
	err error
}

// ingestProgressModel renders a progress bar fed by in-process ingestion
// events instead of server polling.
type ingestProgressModel struct {
	label    string
	events   <-chan progressEvent
	done     <-chan error
	progress progress.Model
	theme    Theme

	current  progressEvent
	finished bool
	err      error
}

func newIngestProgressModel(label string, events <-chan progressEvent, done <-chan error) ingestProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return ingestProgressModel{
		label:    label,
		events:   events,
		done:     done,
		progress: prog,
		theme:    defaultTheme,
	}
}

func (m ingestProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.waitForEvent(),
		m.progress.Init(),
	)
}

func (m ingestProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.finished = true
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}

	case progressEvent:
		m.current = msg
		return m, m.waitForEvent()

	case ingestDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ingestProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestProgressModel) renderContent() string {
	if m.finished {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s failed: %s\n", m.label, m.err))
		}
		return m.theme.completedLine(m.label)
	}

	var pct float64
	if m.current.Total > 0 {
		pct = float64(m.current.Done) / float64(m.current.Total)
	}
	status := m.theme.headerStyle().Render(fmt.Sprintf("[%s]", m.label))
	counts := fmt.Sprintf("%d/%d", m.current.Done, m.current.Total)
	return fmt.Sprintf("%s %s %s\n", status, m.progress.ViewAs(pct), counts)
}

func (t Theme) completedLine(label string) string {
	return t.successStyle().Render(fmt.Sprintf("✓ %s complete\n", label))
}

// waitForEvent blocks on the next progress or completion message.
// Runs as a command so Update never blocks.
func (m ingestProgressModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return ev
		case err := <-m.done:
			return ingestDoneMsg{err: err}
		}
	}
}

// runWithProgress drives fn under a progress bar. fn receives a callback to
// report (done, total) counts and runs in its own goroutine.
func runWithProgress(label string, fn func(report func(done, total int)) error) error {
	events := make(chan progressEvent, 16)
	done := make(chan error, 1)

	go func() {
		done <- fn(func(d, t int) {
			select {
			case events <- progressEvent{Done: d, Total: t}:
			default: // drop updates the UI has not consumed yet
			}
		})
	}()

	model := newIngestProgressModel(label, events, done)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := finalModel.(ingestProgressModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
