package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/awesamdood/ptb/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist downloader.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	poller := r.newPoller(0, nil)
	model := ui.NewModel(ctx, r.tools, poller, ui.Options{
		URL:         cmd.StringArg("url"),
		DownloadDir: r.downloadDir(cmd),
		Logger:      shared.WithLogger(fileLogger, "component", "tui"),
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
