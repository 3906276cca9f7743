package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is one selectable menu entry.
type Choice struct {
	// ID is the stable identifier handed to the RunFunc.
	ID string

	// Title is the menu line.
	Title string

	// Desc is the dimmed explanation under the selected entry.
	Desc string
}

// RunFunc executes the selected choice and returns the rendered report.
type RunFunc func(ctx context.Context, choice Choice) (string, error)

type menuState int

const (
	statePicking menuState = iota
	stateRunning
	stateDone
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	descStyle     = lipgloss.NewStyle().Faint(true).PaddingLeft(4)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type runDoneMsg struct {
	output string
	err    error
}

// MenuModel is the bubbletea model for the interactive menu loop: pick a
// choice, watch the spinner while the batch runs, read the report, pick
// again. q quits.
type MenuModel struct {
	ctx     context.Context
	choices []Choice
	run     RunFunc

	cursor  int
	state   menuState
	spinner spinner.Model
	output  string
	err     error
}

// NewMenuModel builds the menu over the given choices.
func NewMenuModel(ctx context.Context, choices []Choice, run RunFunc) *MenuModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedStyle
	return &MenuModel{
		ctx:     ctx,
		choices: choices,
		run:     run,
		spinner: s,
	}
}

// Init implements tea.Model.
func (m *MenuModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runDoneMsg:
		m.state = stateDone
		m.output = msg.output
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m *MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.state {
	case stateRunning:
		// No interaction while a batch is in flight.
		return m, nil

	case stateDone:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		m.state = statePicking
		return m, nil

	case statePicking:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.state = stateRunning
			choice := m.choices[m.cursor]
			return m, tea.Batch(m.spinner.Tick, m.startRun(choice))
		}
	}
	return m, nil
}

func (m *MenuModel) startRun(choice Choice) tea.Cmd {
	return func() tea.Msg {
		output, err := m.run(m.ctx, choice)
		return runDoneMsg{output: output, err: err}
	}
}

// View implements tea.Model.
func (m *MenuModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("batchbench"))
	b.WriteString("\n\n")

	switch m.state {
	case stateRunning:
		fmt.Fprintf(&b, "%s Running %s ...\n", m.spinner.View(), m.choices[m.cursor].Title)

	case stateDone:
		if m.err != nil {
			b.WriteString(errStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
			b.WriteString("\n")
		} else {
			b.WriteString(m.output)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("any key: back to menu • q: quit"))
		b.WriteString("\n")

	case statePicking:
		for i, choice := range m.choices {
			if i == m.cursor {
				fmt.Fprintf(&b, "%s\n", selectedStyle.Render("> "+choice.Title))
				if choice.Desc != "" {
					fmt.Fprintf(&b, "%s\n", descStyle.Render(choice.Desc))
				}
				continue
			}
			fmt.Fprintf(&b, "  %s\n", choice.Title)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓: move • enter: run • q: quit"))
		b.WriteString("\n")
	}
	return b.String()
}
