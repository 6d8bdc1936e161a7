// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
)

func teamCommand() *cli.Command {
	return &cli.Command{
		Name:    "team",
		Summary: "manage the active company's members",
		Subcommands: []*cli.Command{
			teamListCommand(),
			teamInviteCommand(),
			teamRoleCommand(),
		},
	}
}

func teamListCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "list",
		Summary: "list members of the active company",
		Usage:   "upkeep team list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				if _, err := requireWorkspace(ctx, app); err != nil {
					return err
				}
				members, err := app.workspace.Members(ctx)
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(members); done {
					return err
				}

				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "MEMBERSHIP\tEMAIL\tROLE\tJOINED")
				for _, member := range members {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						member.MembershipID, member.Email, member.Role, member.JoinedAt)
				}
				return tw.Flush()
			})
		},
	}
}

func teamInviteCommand() *cli.Command {
	var role string
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "invite",
		Summary: "invite a customer to the active company",
		Usage:   "upkeep team invite <email> [flags]",
		Examples: []cli.Example{
			{Command: "upkeep team invite colleague@example.com --role MEMBER"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("invite", pflag.ContinueOnError)
			flags.StringVar(&role, "role", string(api.RoleMember), "role for the new member: OWNER or MEMBER")
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the invitee's email")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				if _, err := requireWorkspace(ctx, app); err != nil {
					return err
				}
				invitation, err := app.workspace.InviteMember(ctx, args[0], api.Role(strings.ToUpper(role)))
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(invitation); done {
					return err
				}
				fmt.Printf("invited %s as %s (expires %s)\n",
					invitation.Email, invitation.Role, invitation.ExpiresAt)
				return nil
			})
		},
	}
}

func teamRoleCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "role",
		Summary: "change a member's role",
		Usage:   "upkeep team role <membership-id> <OWNER|MEMBER> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("role", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected two arguments: membership id and new role")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				if _, err := requireWorkspace(ctx, app); err != nil {
					return err
				}
				change, err := app.workspace.UpdateMemberRole(ctx, args[0], api.Role(strings.ToUpper(args[1])))
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(change); done {
					return err
				}
				fmt.Printf("%s: %s -> %s\n", change.MembershipID, change.PreviousRole, change.NewRole)
				return nil
			})
		},
	}
}
