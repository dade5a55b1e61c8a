package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"stride/internal/stress"
	"stride/internal/ui"
)

type stressOutcome struct {
	results []stress.Result
	err     error
}

func runStressWithUI(ctx context.Context, title string, params stress.Params) ([]stress.Result, error) {
	events := make(chan stress.Event, 256)
	outcomeCh := make(chan stressOutcome, 1)

	// Row order must match the runner's scenario-major unit order.
	contexts := params.Contexts
	if contexts <= 0 {
		contexts = 1
	}
	labels := make([]string, 0, len(params.Scenarios)*contexts)
	for _, sc := range params.Scenarios {
		for i := 0; i < contexts; i++ {
			labels = append(labels, ui.RunLabel(sc.Name, i))
		}
	}

	go func() {
		paramsCopy := params
		paramsCopy.Sink = stress.ChannelSink{Ch: events}
		results, err := stress.Run(ctx, paramsCopy)
		outcomeCh <- stressOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewStressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
