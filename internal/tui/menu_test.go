package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChoices() []Choice {
	return []Choice{
		{ID: "io/sequential", Title: "IO: Sequential", Desc: "one download at a time"},
		{ID: "io/pool", Title: "IO: Thread Pool"},
		{ID: "cpu/procpool", Title: "CPU: Process Pool"},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestMenuNavigation(t *testing.T) {
	m := NewMenuModel(context.Background(), testChoices(), nil)

	// Cursor clamps at the top.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(*MenuModel)
	assert.Equal(t, 0, m.cursor)

	next, _ = m.Update(keyRune('j'))
	m = next.(*MenuModel)
	assert.Equal(t, 1, m.cursor)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(*MenuModel)
	assert.Equal(t, 2, m.cursor)

	// ...and at the bottom.
	next, _ = m.Update(keyRune('j'))
	m = next.(*MenuModel)
	assert.Equal(t, 2, m.cursor)

	next, _ = m.Update(keyRune('k'))
	m = next.(*MenuModel)
	assert.Equal(t, 1, m.cursor)
}

func TestMenuRunLifecycle(t *testing.T) {
	var ranID string
	run := func(_ context.Context, choice Choice) (string, error) {
		ranID = choice.ID
		return "Downloaded 160 sites in 2.5s", nil
	}
	m := NewMenuModel(context.Background(), testChoices(), run)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*MenuModel)
	require.NotNil(t, cmd)
	assert.Equal(t, stateRunning, m.state)
	assert.Contains(t, m.View(), "Running")

	// Keys are ignored while the batch is in flight.
	next, _ = m.Update(keyRune('j'))
	m = next.(*MenuModel)
	assert.Equal(t, 0, m.cursor)

	// Drive the batched command to completion and feed the done message back.
	msg := findRunDone(t, cmd)
	assert.Equal(t, "io/sequential", ranID)

	next, _ = m.Update(msg)
	m = next.(*MenuModel)
	assert.Equal(t, stateDone, m.state)
	assert.Contains(t, m.View(), "Downloaded 160 sites")

	// Any key returns to the menu.
	next, _ = m.Update(keyRune('x'))
	m = next.(*MenuModel)
	assert.Equal(t, statePicking, m.state)
}

func TestMenuRunFailure(t *testing.T) {
	run := func(_ context.Context, _ Choice) (string, error) {
		return "", errors.New("strategy already running")
	}
	m := NewMenuModel(context.Background(), testChoices(), run)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*MenuModel)
	msg := findRunDone(t, cmd)

	next, _ = m.Update(msg)
	m = next.(*MenuModel)
	assert.Equal(t, stateDone, m.state)
	assert.Contains(t, m.View(), "run failed")
	assert.Contains(t, m.View(), "strategy already running")
}

func TestMenuQuitKeys(t *testing.T) {
	m := NewMenuModel(context.Background(), testChoices(), nil)

	_, cmd := m.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMenuViewPicking(t *testing.T) {
	m := NewMenuModel(context.Background(), testChoices(), nil)
	view := m.View()

	assert.Contains(t, view, "batchbench")
	assert.Contains(t, view, "IO: Sequential")
	assert.Contains(t, view, "one download at a time", "selected entry shows its description")
	assert.Contains(t, view, "CPU: Process Pool")
}

// findRunDone executes cmd (unwrapping tea.Batch) until the run completion
// message surfaces.
func findRunDone(t *testing.T, cmd tea.Cmd) runDoneMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case runDoneMsg:
			return msg
		case tea.BatchMsg:
			queue = append(queue, msg...)
		}
	}
	t.Fatal("command never produced a run completion message")
	return runDoneMsg{}
}
