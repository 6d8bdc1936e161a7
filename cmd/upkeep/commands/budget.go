// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/upkeep-foundation/upkeep/budget"
	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
)

func budgetCommand() *cli.Command {
	return &cli.Command{
		Name:    "budget",
		Summary: "manage the active company's monthly budget",
		Subcommands: []*cli.Command{
			budgetShowCommand(),
			budgetSetCommand(),
			budgetUpdateCommand(),
		},
	}
}

func budgetShowCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "show",
		Summary: "show the current budget",
		Usage:   "upkeep budget show [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				companyID, err := requireWorkspace(ctx, app)
				if err != nil {
					return err
				}
				flow := budget.NewFlow(app.client, companyID, app.logger)
				summary, err := flow.Load(ctx)
				if err != nil {
					return err
				}

				if done, err := output.EmitJSON(summary); done {
					return err
				}

				if !summary.Exists {
					fmt.Println("no budget configured (run 'upkeep budget set')")
					return nil
				}
				currency := budget.Currency(summary.Currency)
				fmt.Printf("total:     %s\n", budget.FormatAmount(summary.TotalCents, currency))
				fmt.Printf("allocated: %s\n", budget.FormatAmount(summary.AllocatedCents, currency))
				fmt.Printf("remaining: %s\n", budget.FormatAmount(summary.RemainingCents, currency))
				return nil
			})
		},
	}
}

func budgetSetCommand() *cli.Command {
	var currency string

	return &cli.Command{
		Name:    "set",
		Summary: "create the monthly budget",
		Usage:   "upkeep budget set <amount> [flags]",
		Examples: []cli.Example{
			{
				Description: "Set a 500 EUR monthly budget",
				Command:     "upkeep budget set 500.00",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("set", pflag.ContinueOnError)
			flags.StringVar(&currency, "currency", string(budget.CurrencyEUR), "budget currency: EUR, USD, or GBP")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the amount")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				companyID, err := requireWorkspace(ctx, app)
				if err != nil {
					return err
				}
				flow := budget.NewFlow(app.client, companyID, app.logger)
				if _, err := flow.Load(ctx); err != nil {
					return err
				}

				result, err := flow.Set(ctx, args[0], budget.Currency(strings.ToUpper(currency)))
				if err != nil {
					return err
				}
				fmt.Printf("budget set to %s\n",
					budget.FormatAmount(result.AmountCents, budget.Currency(result.Currency)))
				return nil
			})
		},
	}
}

func budgetUpdateCommand() *cli.Command {
	var currency string
	var yes bool

	return &cli.Command{
		Name:    "update",
		Summary: "change the monthly budget",
		Description: "Change the monthly budget. A reduction below the current total\n" +
			"asks for confirmation first; pass --yes to confirm up front.\n" +
			"Changing the currency keeps the typed amount as-is, there is no\n" +
			"conversion.",
		Usage: "upkeep budget update <amount> [flags]",
		Examples: []cli.Example{
			{
				Description: "Raise the budget (no confirmation needed)",
				Command:     "upkeep budget update 750.00",
			},
			{
				Description: "Reduce the budget in a script",
				Command:     "upkeep budget update 250.00 --yes",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
			flags.StringVar(&currency, "currency", string(budget.CurrencyEUR), "budget currency: EUR, USD, or GBP")
			flags.BoolVar(&yes, "yes", false, "confirm a budget reduction without prompting")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the amount")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				companyID, err := requireWorkspace(ctx, app)
				if err != nil {
					return err
				}
				flow := budget.NewFlow(app.client, companyID, app.logger)
				if _, err := flow.Load(ctx); err != nil {
					return err
				}

				result, needsConfirm, err := flow.Update(ctx, args[0], budget.Currency(strings.ToUpper(currency)))
				if err != nil {
					return err
				}

				if needsConfirm {
					if !yes && !confirmReduction(flow) {
						flow.Cancel()
						fmt.Println("reduction cancelled, budget unchanged")
						return nil
					}
					result, err = flow.Confirm(ctx)
					if err != nil {
						return err
					}
				}

				fmt.Printf("budget updated to %s\n",
					budget.FormatAmount(result.AmountCents, budget.Currency(result.Currency)))
				if result.IsLowerThanAllocations {
					fmt.Printf("warning: budget is below committed allocations (%s)\n",
						budget.FormatAmount(result.CurrentAllocationsCents, budget.Currency(result.Currency)))
				}
				return nil
			})
		},
	}
}

// confirmReduction prints the held reduction and asks for an explicit
// yes on stdin. Anything but "y"/"yes" declines.
func confirmReduction(flow *budget.Flow) bool {
	pending, ok := flow.Pending()
	if !ok {
		return false
	}
	summary, _ := flow.Summary()

	fmt.Printf("reduce budget from %s to %s? [y/N] ",
		budget.FormatAmount(summary.TotalCents, budget.Currency(summary.Currency)),
		budget.FormatAmount(pending.AmountCents, budget.Currency(pending.Currency)))

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
