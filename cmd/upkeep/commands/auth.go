// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/upkeep-foundation/upkeep/api"
	"github.com/upkeep-foundation/upkeep/cmd/upkeep/cli"
	"github.com/upkeep-foundation/upkeep/lib/secret"
	"github.com/upkeep-foundation/upkeep/session"
)

func loginCommand() *cli.Command {
	var email string
	var passwordFile string

	return &cli.Command{
		Name:    "login",
		Summary: "sign in to the Upkeep platform",
		Usage:   "upkeep login --email <address> [flags]",
		Examples: []cli.Example{
			{
				Description: "Sign in interactively (password prompted)",
				Command:     "upkeep login --email you@example.com",
			},
			{
				Description: "Sign in non-interactively for scripts",
				Command:     "upkeep login --email you@example.com --password-file ~/.upkeep-pass",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.StringVar(&email, "email", "", "account email address")
			flags.StringVar(&passwordFile, "password-file", "", "read the password from this file ('-' for stdin)")
			return flags
		},
		Run: func(args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				password, err := readPassword(passwordFile, "password: ")
				if err != nil {
					return err
				}
				defer password.Close()

				identity, err := app.session.Login(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Printf("signed in as %s (%s)\n", identity.Email, identity.AccountType)
				return nil
			})
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "end the current session",
		Usage:   "upkeep logout",
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				app.session.Logout(ctx)
				fmt.Println("signed out")
				return nil
			})
		},
	}
}

func registerCommand() *cli.Command {
	var email string
	var accountType string
	var passwordFile string

	return &cli.Command{
		Name:    "register",
		Summary: "create a new Upkeep account",
		Usage:   "upkeep register --email <address> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
			flags.StringVar(&email, "email", "", "account email address")
			flags.StringVar(&accountType, "account-type", string(api.AccountTypeCompany),
				"account type: COMPANY, MAINTAINER, or BOTH")
			flags.StringVar(&passwordFile, "password-file", "", "read the password from this file ('-' for stdin)")
			return flags
		},
		Run: func(args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			return withApp(func(ctx context.Context, app *appContext) error {
				password, err := readPassword(passwordFile, "password: ")
				if err != nil {
					return err
				}
				defer password.Close()

				// Interactive registrations confirm the password; a
				// password file is taken as-is.
				confirm := password
				if passwordFile == "" {
					confirm, err = secret.Prompt("confirm password: ")
					if err != nil {
						return err
					}
					defer confirm.Close()
					if !password.Equal(confirm) {
						return fmt.Errorf("passwords do not match")
					}
				}

				identity, err := app.session.Register(ctx, api.RegisterRequest{
					Email:           email,
					Password:        password,
					ConfirmPassword: confirm,
					AccountType:     api.AccountType(accountType),
				})
				if err != nil {
					return err
				}
				fmt.Printf("account created, signed in as %s (%s)\n", identity.Email, identity.AccountType)
				return nil
			})
		},
	}
}

func whoamiCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "whoami",
		Summary: "show the signed-in identity",
		Usage:   "upkeep whoami [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
			output.Register(flags)
			return flags
		},
		Run: func(args []string) error {
			return withApp(func(ctx context.Context, app *appContext) error {
				snapshot := app.session.Init(ctx)
				if snapshot.Status != session.StatusAuthenticated {
					fmt.Fprintln(os.Stderr, "not signed in")
					return &cli.ExitError{Code: 1}
				}

				if done, err := output.EmitJSON(snapshot.Identity); done {
					return err
				}
				fmt.Printf("%s (%s)\n", snapshot.Identity.Email, snapshot.Identity.AccountType)
				return nil
			})
		},
	}
}

// readPassword reads the password from a file when one is given,
// otherwise prompts on the terminal.
func readPassword(path, label string) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadFromPath(path)
	}
	return secret.Prompt(label)
}
