package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/brhoades44/batchbench/internal/tui"
)

// menuChoices are the six classic pairings plus nothing else; quit is a key,
// not an entry. IDs are "problem/strategy".
func menuChoices() []tui.Choice {
	return []tui.Choice{
		{
			ID:    "io/sequential",
			Title: "I/O bound: download URLs — sequential",
			Desc:  "one download at a time; the baseline",
		},
		{
			ID:    "io/pool",
			Title: "I/O bound: download URLs — goroutine pool",
			Desc:  "bounded pool of workers, one session each",
		},
		{
			ID:    "io/async",
			Title: "I/O bound: download URLs — cooperative tasks",
			Desc:  "one task per download sharing a session; usually the fastest",
		},
		{
			ID:    "io/procpool",
			Title: "I/O bound: download URLs — process pool",
			Desc:  "worker subprocesses; overhead exceeds benefit on I/O",
		},
		{
			ID:    "cpu/sequential",
			Title: "CPU bound: sum squares — sequential",
			Desc:  "one computation at a time; the baseline",
		},
		{
			ID:    "cpu/procpool",
			Title: "CPU bound: sum squares — process pool",
			Desc:  "true parallelism across processors; the CPU-bound winner",
		},
	}
}

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Pick and run strategies interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd)
		},
	}
}

// runMenu drives the interactive menu: full-screen TUI on a terminal, a
// plain numbered prompt loop everywhere else.
func runMenu(cmd *cobra.Command) error {
	run := func(ctx context.Context, choice tui.Choice) (string, error) {
		problem, strategyName, ok := strings.Cut(choice.ID, "/")
		if !ok {
			return "", fmt.Errorf("malformed menu choice %q", choice.ID)
		}
		report, err := executeRun(ctx, cfg, problem, strategyName)
		if err != nil {
			return "", err
		}
		return RenderReport(report, problem), nil
	}

	if !tui.IsTTY() {
		return promptLoop(cmd, menuChoices(), run)
	}

	model := tui.NewMenuModel(cmd.Context(), menuChoices(), run)
	_, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	return err
}

// promptLoop is the non-TTY fallback: print the numbered choices, read a
// selection, run it, repeat until q.
func promptLoop(cmd *cobra.Command, choices []tui.Choice, run tui.RunFunc) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprintln(out)
		for i, choice := range choices {
			fmt.Fprintf(out, "  %d.) %s\n", i+1, choice.Title)
		}
		fmt.Fprintf(out, "\nEnter a value between 1 and %d (or q to quit): ", len(choices))

		if !scanner.Scan() {
			// EOF ends the session like an explicit quit.
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "q" {
			return nil
		}

		idx := -1
		for i := range choices {
			if input == fmt.Sprintf("%d", i+1) {
				idx = i
				break
			}
		}
		if idx < 0 {
			fmt.Fprintln(out, "\nINVALID SELECTION!")
			continue
		}

		output, err := run(cmd.Context(), choices[idx])
		if err != nil {
			fmt.Fprintf(out, "run failed: %v\n", err)
			continue
		}
		fmt.Fprintln(out, output)
	}
}
