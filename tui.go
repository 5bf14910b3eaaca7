package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dictate/log"
	"dictate/session"
)

type statusMsg struct{ Text string }
type sessionDoneMsg struct{}

type popupModel struct {
	status string
	width  int
	ctrl   *session.Controller
}

var (
	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Foreground(lipgloss.Color("#cdd6f4")).
			Padding(1, 4)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

func (m popupModel) Init() tea.Cmd { return nil }

func (m popupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.ctrl.Stop()
		case "ctrl+c":
			m.ctrl.Cancel()
		}

	case statusMsg:
		m.status = msg.Text

	case sessionDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m popupModel) View() string {
	box := popupStyle
	if m.width > 8 {
		box = box.Width(m.width - 2)
	}
	return box.Render(m.status) + "\n" +
		helpStyle.Render(" esc transcribe · ctrl+c cancel") + "\n"
}

// tuiView forwards status updates into the bubbletea event loop.
type tuiView struct {
	program *tea.Program
}

func (v *tuiView) SetStatus(text string) {
	v.program.Send(statusMsg{Text: text})
}

func runTUI(ctx context.Context, scfg session.Config) session.Result {
	view := &tuiView{}
	ctrl := session.New(scfg, view)
	view.program = tea.NewProgram(
		popupModel{status: session.StatusStarting, ctrl: ctrl},
		tea.WithoutSignalHandler(),
	)

	done := make(chan session.Result, 1)
	go func() {
		res := ctrl.Run(ctx)
		done <- res
		view.program.Send(sessionDoneMsg{})
	}()

	if _, err := view.program.Run(); err != nil {
		log.Errorf("tui: %v", err)
		ctrl.Cancel()
	}
	return <-done
}
