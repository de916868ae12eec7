// Package cli implements the account service command-line client.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command of the accounts CLI.
func NewRootCmd(opts ...Option) *cobra.Command {
	return newRootCmd(newApp(opts...))
}

func newRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Client for the account service",
		Long: `accounts talks to the account service over gRPC: register an account,
log in, refresh or inspect the session token, change the profile and delete
the account. The last token per server is kept in a local SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.Flags().Changed)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.out)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file path")
	pf.StringVarP(&a.addr, "addr", "a", "", "address of the account service")
	pf.DurationVar(&a.timeout, "timeout", 0, "deadline of each call")
	pf.StringVar(&a.sessionDB, "session-db", "", "session database file, empty disables")
	pf.StringVar(&a.token, "token", "", "token to use instead of the stored session")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRefreshCmd(a))
	cmd.AddCommand(newUpdateCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newGetUserCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newLogoutCmd(a))

	return cmd
}

// Execute runs the CLI with args (without the program name).
func Execute(ctx context.Context, args []string, opts ...Option) error {
	a := newApp(opts...)
	defer a.teardown()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
