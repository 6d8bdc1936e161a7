// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
)

func invitationCommand() *cli.Command {
	return &cli.Command{
		Name:    "invitation",
		Summary: "look up and accept team invitations",
		Subcommands: []*cli.Command{
			invitationShowCommand(),
			invitationAcceptCommand(),
		},
	}
}

func invitationShowCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "show",
		Summary: "show an invitation by token",
		Usage:   "upkeep invitation show <token> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the invitation token")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				// Lookup is deliberately unauthenticated: invitees
				// inspect invitations before they have an account.
				details, err := app.workspace.InvitationDetails(ctx, args[0])
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(details); done {
					return err
				}

				fmt.Printf("invitation to join %s as %s\n", details.CompanyName, details.Role)
				fmt.Printf("status: %s\n", details.Status)
				if details.IsExpired {
					fmt.Printf("expired at %s\n", details.ExpiresAt)
				} else {
					fmt.Printf("expires at %s\n", details.ExpiresAt)
				}
				return nil
			})
		},
	}
}

func invitationAcceptCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "accept",
		Summary: "accept an invitation by token",
		Usage:   "upkeep invitation accept <token> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("accept", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the invitation token")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				if err := requireAuth(ctx, app); err != nil {
					return err
				}
				result, err := app.workspace.AcceptInvitation(ctx, args[0])
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(result); done {
					return err
				}
				fmt.Printf("joined %s as %s\n", result.CompanyName, result.Role)
				return nil
			})
		},
	}
}
