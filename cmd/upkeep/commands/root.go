// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the upkeep CLI command tree. Each leaf
// command wires the API client and stores, performs one operation, and
// prints either text or --json output; the ui command starts the
// interactive terminal interface instead.
package commands

import (
	"context"
	"fmt"

	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
)

// Root returns the root of the upkeep command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "upkeep",
		Summary: "manage company sponsorship budgets on the Upkeep platform",
		Description: "upkeep is the command-line client for the Upkeep sponsorship\n" +
			"platform: sign in, pick a company workspace, and manage its\n" +
			"monthly open source budget.",
		Subcommands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			registerCommand(),
			whoamiCommand(),
			companyCommand(),
			teamCommand(),
			invitationCommand(),
			budgetCommand(),
			uiCommand(),
		},
	}
}

// withApp builds the app context, runs fn with a request-scoped
// context, and tears everything down.
func withApp(fn func(ctx context.Context, app *appContext) error) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), app.config.RequestTimeout())
	defer cancel()
	return fn(ctx, app)
}

// requireAuth resolves the restored session and fails when nobody is
// signed in. Protected commands call this before doing anything.
func requireAuth(ctx context.Context, app *appContext) error {
	snapshot := app.session.Init(ctx)
	if snapshot.Identity == nil {
		return fmt.Errorf("not signed in (run 'upkeep login')")
	}
	return nil
}

// requireWorkspace resolves the session and the company selection.
// Returns the selected company id.
func requireWorkspace(ctx context.Context, app *appContext) (string, error) {
	if err := requireAuth(ctx, app); err != nil {
		return "", err
	}
	if _, err := app.workspace.RefreshCompanies(ctx); err != nil {
		return "", err
	}
	snapshot := app.workspace.Snapshot()
	if snapshot.CurrentID == "" {
		return "", fmt.Errorf("no company workspace (run 'upkeep company create')")
	}
	return snapshot.CurrentID, nil
}
