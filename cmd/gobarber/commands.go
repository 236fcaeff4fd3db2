package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/gobarber/internal/account"
	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/scheduling"
	"github.com/sakif/gobarber/internal/session"
	"github.com/sakif/gobarber/internal/validation"
)

const dateLayout = "2006-01-02"

// explain turns a flow error into the text a screen would show.
func (c *cli) explain(err error) error {
	if err == nil {
		return nil
	}
	c.app.logger.Debug("command failed", slog.String("error", err.Error()))

	if errors.Is(err, apperror.ErrUnauthorized) {
		return errors.New("not signed in, run gobarber signin first")
	}
	fb := account.Explain(err)
	if len(fb.Fields) > 0 {
		return fb.Fields
	}
	return errors.New(fb.Message)
}

func (c *cli) signInCmd() *cobra.Command {
	var form validation.SignInForm
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.accounts.SignIn(cmd.Context(), form); err != nil {
				return c.explain(err)
			}
			sess, _ := c.app.sessions.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", sess.Identity.Name, sess.Identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	return cmd
}

func (c *cli) signUpCmd() *cobra.Command {
	var form validation.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := c.app.accounts.SignUp(cmd.Context(), form)
			if err != nil {
				return c.explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Sign in to continue.\n", identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password (at least 6 characters)")
	return cmd
}

func (c *cli) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the session stored on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.accounts.SignOut(cmd.Context()); err != nil {
				return c.explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (c *cli) whoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := session.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			view := sessions.View()
			if view.Identity == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			dashboard := scheduling.NewDashboard(nil, c.app.nav)
			fmt.Fprintln(cmd.OutOrStdout(), dashboard.Greeting(*view.Identity))
			fmt.Fprintln(cmd.OutOrStdout(), view.Identity.Email)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var form validation.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update name, email or password",
		Long: `Update the signed-in user's profile. Name and email default to the
current values. Pass --old-password together with --password and
--password-confirmation to change the password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := session.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			sess, ok := sessions.Session()
			if !ok {
				return c.explain(apperror.Unauthorized("not signed in"))
			}
			if form.Name == "" {
				form.Name = sess.Identity.Name
			}
			if form.Email == "" {
				form.Email = sess.Identity.Email
			}

			scheduling.NewDashboard(nil, c.app.nav).OpenProfile()
			identity, err := c.app.accounts.UpdateProfile(cmd.Context(), form)
			if err != nil {
				return c.explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", identity.Name, identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "new name")
	cmd.Flags().StringVar(&form.Email, "email", "", "new email")
	cmd.Flags().StringVar(&form.OldPassword, "old-password", "", "current password")
	cmd.Flags().StringVar(&form.Password, "password", "", "new password")
	cmd.Flags().StringVar(&form.PasswordConfirmation, "password-confirmation", "", "new password again")
	return cmd
}

func (c *cli) providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the providers you can book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := c.app.sessions.Gateway()
			if err != nil {
				return c.explain(err)
			}
			providers, err := scheduling.NewDashboard(gw, c.app.nav).Providers(cmd.Context())
			if err != nil {
				return c.explain(err)
			}
			if len(providers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers yet.")
				return nil
			}
			for _, p := range providers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}

// dayFlags are shared by availability and book.
type dayFlags struct {
	provider string
	date     string
}

func (f *dayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "provider id (see providers)")
	cmd.Flags().StringVar(&f.date, "date", "", "day as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("provider")
}

func (f *dayFlags) day() (time.Time, error) {
	if f.date == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	d, err := time.ParseInLocation(dateLayout, f.date, time.Local)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date", fmt.Sprintf("date %q is not YYYY-MM-DD", f.date))
	}
	return d, nil
}

// workflow opens the create-appointment flow for the flags' provider and day.
func (c *cli) workflow(cmd *cobra.Command, f *dayFlags) (*scheduling.Workflow, error) {
	date, err := f.day()
	if err != nil {
		return nil, err
	}
	gw, err := c.app.sessions.Gateway()
	if err != nil {
		return nil, err
	}

	scheduling.NewDashboard(gw, c.app.nav).OpenProvider(f.provider)
	wf := scheduling.New(gw, c.app.nav, c.app.logger,
		scheduling.WithProvider(f.provider),
		scheduling.WithDate(date),
	)
	if err := wf.Mount(cmd.Context()); err != nil {
		return nil, err
	}
	return wf, nil
}

func (c *cli) availabilityCmd() *cobra.Command {
	var f dayFlags
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show a provider's hours for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.workflow(cmd, &f)
			if err != nil {
				return c.explain(err)
			}
			out := cmd.OutOrStdout()
			printSlots(out, "Manhã", wf.Morning())
			printSlots(out, "Tarde", wf.Afternoon())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func printSlots(w io.Writer, title string, slots []scheduling.Slot) {
	fmt.Fprintln(w, title)
	if len(slots) == 0 {
		fmt.Fprintln(w, "  -")
		return
	}
	for _, s := range slots {
		if s.Available {
			fmt.Fprintf(w, "  %s\n", s.Label)
		} else {
			fmt.Fprintf(w, "  %s  indisponível\n", s.Label)
		}
	}
}

func (c *cli) bookCmd() *cobra.Command {
	var (
		f    dayFlags
		hour int
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a provider at an hour of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.workflow(cmd, &f)
			if err != nil {
				return c.explain(err)
			}
			if err := wf.SelectHour(hour); err != nil {
				return c.explain(err)
			}
			conf, err := wf.Submit(cmd.Context())
			if err != nil {
				if errors.Is(err, scheduling.ErrAppointmentCreation) {
					return scheduling.ErrAppointmentCreation
				}
				return c.explain(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Agendamento concluído")
			fmt.Fprintln(cmd.OutOrStdout(), conf.Text())
			conf.Done(c.app.nav)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&hour, "hour", -1, "hour of the day, 0-23")
	_ = cmd.MarkFlagRequired("hour")
	return cmd
}
