// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-foundation/upkeep/tui"
)

func uiCommand() *cli.Command {
	return &cli.Command{
		Name:    "ui",
		Summary: "open the interactive terminal interface",
		Usage:   "upkeep ui",
		Run: func(args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.Close()

			model := tui.New(app.client, app.session, app.workspace)
			program := tea.NewProgram(model, tea.WithAltScreen())

			// Background session changes (renewal failure while the UI
			// is open) feed into the program as messages.
			cancel := model.WatchSession(program)
			defer cancel()

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("ui: %w", err)
			}
			return nil
		},
	}
}
