package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/desertthunder/vorplay/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI, optionally starting at a navigation state.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	start, err := parseNavigation(cmd.StringArg("state"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.SetLogLevel(fileLogger, r.config.Log.Level); err != nil {
		fileLogger.Warn("ignoring log level", "err", err)
	}
	r.SetLogger(fileLogger)

	if err := r.prepare(); err != nil {
		return err
	}

	// The model restores the session itself so the loading placeholder shows while it runs.
	model := ui.NewModel(ctx, r.store, r.loader, router.New(start), fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
