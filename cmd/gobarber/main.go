// Package main is the gobarber command-line client.
//
// Each subcommand plays one screen of the booking app against a running
// backend (see cmd/server). The session lives in a small SQLite file, so a
// sign-in survives between invocations until signout.
//
//	gobarber signup --name Ana --email ana@example.com --password 123456
//	gobarber signin --email ana@example.com --password 123456
//	gobarber providers
//	gobarber availability --provider <id> --date 2024-03-01
//	gobarber book --provider <id> --date 2024-03-01 --hour 14
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/gobarber/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run builds the command tree, executes args and releases device storage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// cli carries the state shared by the commands of one invocation.
type cli struct {
	configPath string
	stderr     io.Writer
	app        *app
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gobarber",
		Short: "Book appointments with GoBarber providers",
		Long: `gobarber is the GoBarber booking client.

Sign up and sign in, browse providers, check a provider's free hours for a day
and book one. Settings come from the config file, overridden by the
GOBARBER_API_URL, GOBARBER_STORAGE_PATH, GOBARBER_LOG_LEVEL and
GOBARBER_TIMEOUT environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), c.configPath, c.stderr)
			if err != nil {
				return err
			}
			c.app = a
			cmd.SetContext(session.NewContext(cmd.Context(), a.sessions))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "path to the YAML config file")

	root.AddCommand(
		c.signInCmd(),
		c.signUpCmd(),
		c.signOutCmd(),
		c.whoAmICmd(),
		c.profileCmd(),
		c.providersCmd(),
		c.availabilityCmd(),
		c.bookCmd(),
	)
	return root
}
