package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/ui"
	"github.com/urfave/cli/v3"
)

// Curate launches the interactive terminal UI for building a mixtape.
func (r *Runner) Curate(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	mixer := curation.NewMixer(catalog, sess, curation.MixerOpts{
		Limit:  r.config.Catalog.RecommendationLimit,
		Logger: shared.WithLogger(fileLogger, "component", "mixer"),
	})

	model := ui.NewModel(ctx, mixer, ui.Options{
		PageSize: r.config.Catalog.PageSize,
		Logger:   shared.WithLogger(fileLogger, "component", "ui"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
