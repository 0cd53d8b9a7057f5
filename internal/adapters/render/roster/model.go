// Package roster renders the account roster for the terminal: one line
// per signed-in account with its proxy binding and a marker on the
// account that sends next.
package roster

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okhotin/tgherd/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// Entry is one roster row.
type Entry struct {
	Profile domain.AccountProfile
	// Proxy is the human-readable proxy address, empty for direct.
	Proxy string
	// SendsNext marks the account the selector would pick for the next send.
	SendsNext bool
	// Viewing marks the account bound to the open chat view.
	Viewing bool
}

// RenderOptions carries the selection context shown in the header.
type RenderOptions struct {
	Mode         string
	AutoDispatch bool
	// Cached marks a roster loaded from the snapshot store rather than
	// live connections.
	Cached bool
}

type renderReadyMsg struct{}

type model struct {
	entries []Entry
	opts    RenderOptions
	styles  styles
	output  string
}

func newModel(entries []Entry, opts RenderOptions) model {
	return model{
		entries: entries,
		opts:    opts,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.entries, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(entries []Entry, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(entries, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
