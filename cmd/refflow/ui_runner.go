package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"refflow/internal/analysis"
	"refflow/internal/ui"
)

type analysisOutcome struct {
	result *analysis.Result
	err    error
}

// runAnalysisWithUI runs the analysis while a progress model renders its
// events on stderr.
func runAnalysisWithUI(ctx context.Context, title string, files []string, opts analysis.Options, shuffleSeed uint64) (*analysis.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan analysis.Event, 256)
	outcomeCh := make(chan analysisOutcome, 1)

	go func() {
		opts.Progress = analysis.ChannelSink{Ch: events}
		res, err := analysis.RunParallel(ctx, opts, shuffleSeed)
		outcomeCh <- analysisOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	final, uiErr := program.Run()
	if !ui.Finished(final) {
		// Ctrl+C: stop the run, keep the sink from blocking it
		cancel()
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
