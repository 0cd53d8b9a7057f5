package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type reloadDoneMsg struct {
	err error
}

type reloadSpinnerModel struct {
	spinner spinner.Model
	label   string
	reload  tea.Cmd
	err     error
	done    bool
}

func newReloadSpinnerModel(label string, reload tea.Cmd) reloadSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
	)

	return reloadSpinnerModel{
		spinner: s,
		label:   label,
		reload:  reload,
	}
}

func (m reloadSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reload)
}

func (m reloadSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case reloadDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m reloadSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runReloadSpinner(ctx context.Context, output io.Writer, reload func(context.Context) error) error {
	reloadCmd := func() tea.Msg {
		return reloadDoneMsg{err: reload(ctx)}
	}

	p := tea.NewProgram(
		newReloadSpinnerModel("Connecting sessions...", reloadCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(reloadSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
