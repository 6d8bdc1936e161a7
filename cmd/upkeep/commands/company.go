// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
)

func companyCommand() *cli.Command {
	return &cli.Command{
		Name:    "company",
		Summary: "manage company workspaces",
		Subcommands: []*cli.Command{
			companyListCommand(),
			companyCreateCommand(),
			companySwitchCommand(),
			companyDashboardCommand(),
		},
	}
}

func companyListCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "list",
		Summary: "list your companies",
		Usage:   "upkeep company list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				if err := requireAuth(ctx, app); err != nil {
					return err
				}
				companies, err := app.workspace.RefreshCompanies(ctx)
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(companies); done {
					return err
				}

				currentID := app.workspace.Snapshot().CurrentID
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "  ID\tNAME\tSLUG\tROLE")
				for _, company := range companies {
					marker := " "
					if company.ID == currentID {
						marker = "*"
					}
					fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n",
						marker, company.ID, company.Name, company.Slug, company.Role)
				}
				return tw.Flush()
			})
		},
	}
}

func companyCreateCommand() *cli.Command {
	var slug string
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "create",
		Summary: "create a company",
		Usage:   "upkeep company create <name> [flags]",
		Examples: []cli.Example{
			{Command: `upkeep company create "Acme GmbH" --slug acme`},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flags.StringVar(&slug, "slug", "", "URL slug (derived from the name when omitted)")
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the company name")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				if err := requireAuth(ctx, app); err != nil {
					return err
				}
				created, err := app.workspace.CreateCompany(ctx, api.CreateCompanyRequest{
					Name: args[0],
					Slug: slug,
				})
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(created); done {
					return err
				}
				fmt.Printf("created %s (%s)\n", created.Name, created.Slug)
				return nil
			})
		},
	}
}

func companySwitchCommand() *cli.Command {
	return &cli.Command{
		Name:    "switch",
		Summary: "select the active company workspace",
		Usage:   "upkeep company switch <company-id>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the company id")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				if err := requireAuth(ctx, app); err != nil {
					return err
				}
				if _, err := app.workspace.RefreshCompanies(ctx); err != nil {
					return err
				}
				if err := app.workspace.SetCurrentCompany(args[0]); err != nil {
					return err
				}
				fmt.Printf("switched to %s\n", args[0])
				return nil
			})
		},
	}
}

func companyDashboardCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "dashboard",
		Summary: "show the active company's dashboard",
		Usage:   "upkeep company dashboard [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				if _, err := requireWorkspace(ctx, app); err != nil {
					return err
				}
				dashboard, err := app.workspace.RefreshDashboard(ctx)
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(dashboard); done {
					return err
				}

				fmt.Printf("%s (%s) — your role: %s\n", dashboard.Name, dashboard.Slug, dashboard.UserRole)
				fmt.Printf("members: %d\n", dashboard.Stats.TotalMembers)
				fmt.Printf("budget configured: %s\n", yesNo(dashboard.Stats.HasBudget))
				fmt.Printf("packages tracked:  %s\n", yesNo(dashboard.Stats.HasPackages))
				fmt.Printf("funds allocated:   %s\n", yesNo(dashboard.Stats.HasAllocations))
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
