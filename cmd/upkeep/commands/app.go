// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-foundation/upkeep/lib/config"
	"github.com/upkeep-foundation/upkeep/lib/statestore"
	"github.com/upkeep-foundation/upkeep/session"
	"github.com/upkeep-foundation/upkeep/workspace"
)

// appContext bundles the wired-up client and stores every command
// needs. Built once per invocation by newAppContext.
type appContext struct {
	config    *config.Config
	logger    *slog.Logger
	state     *statestore.Store
	client    *api.Client
	session   *session.Store
	workspace *workspace.Store
}

// newAppContext loads configuration and constructs the API client with
// its persistent cookie jar, plus the session and workspace stores on
// top of it. The jar lives in the state directory next to the cached
// identity, so a session started by one command is picked up by the
// next.
func newAppContext() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cli.NewCommandLogger()
	state := statestore.New(cfg.Paths.State)

	jar := api.NewPersistentJar(state.Path(statestore.CookieSlot))
	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout()},
		Jar:        jar,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	sessionStore := session.NewStore(session.Config{
		Client:     client,
		State:      state,
		RenewEvery: cfg.RenewEvery(),
		Logger:     logger,
	})
	workspaceStore := workspace.NewStore(workspace.Config{
		Client:  client,
		State:   state,
		Session: sessionStore,
		Logger:  logger,
	})

	return &appContext{
		config:    cfg,
		logger:    logger,
		state:     state,
		client:    client,
		session:   sessionStore,
		workspace: workspaceStore,
	}, nil
}

// Close releases background resources. One-shot commands call it via
// defer; renewal tickers must not outlive the command.
func (a *appContext) Close() {
	a.workspace.Close()
	a.session.Close()
	a.client.CloseIdleConnections()
}
