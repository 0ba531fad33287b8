package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/knowbot/internal/client"
)

// errStoppedWaiting is returned when the user leaves the spinner early.
var errStoppedWaiting = fmt.Errorf("stopped waiting: %w", context.Canceled)

// askDoneMsg carries the outcome of the ask request.
type askDoneMsg struct {
	res *client.AskResult
	err error
}

// waitModel is the bubbletea model shown while a bot reply is pending.
type waitModel struct {
	p        *printer
	spinner  spinner.Model
	label    string
	ask      tea.Cmd
	res      *client.AskResult
	err      error
	done     bool
	quitting bool
}

func newWaitModel(p *printer, label string, ask tea.Cmd) waitModel {
	return waitModel{
		p:       p,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		label:   label,
		ask:     ask,
	}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.ask)
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case askDoneMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() tea.View {
	if m.done || m.quitting {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s\n",
		m.p.render(m.p.theme.statusStyle(), m.spinner.View()),
		m.p.render(m.p.theme.hintStyle(), m.label)))
}

// waitForReply runs ask behind a spinner. Leaving early cancels the request
// and returns errStoppedWaiting.
func waitForReply(ctx context.Context, p *printer, label string, ask func(context.Context) (*client.AskResult, error)) (*client.AskResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newWaitModel(p, label, func() tea.Msg {
		res, err := ask(ctx)
		return askDoneMsg{res: res, err: err}
	})
	final, err := tea.NewProgram(model, tea.WithOutput(p.w)).Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := final.(waitModel)
	if !ok || m.quitting {
		return nil, errStoppedWaiting
	}
	return m.res, m.err
}
