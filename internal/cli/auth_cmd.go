package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goalcheck/goalcheck/internal/client"
	"github.com/goalcheck/goalcheck/internal/locale"
)

type credentialFlags struct {
	email    string
	name     string
	noResume bool
}

func (f *credentialFlags) bind(cmd *cobra.Command, withName bool) {
	cmd.Flags().StringVar(&f.email, "email", "", "Account email (prompted when empty)")
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "Display name")
	}
	cmd.Flags().BoolVar(&f.noResume, "no-resume", false, "Do not resume a goal saved before login")
}

// read prompts for missing credentials. The password always comes from the
// input, never from a flag.
func (f *credentialFlags) read(cmd *cobra.Command, a *app) (string, string, error) {
	lines := newLineReader(cmd.InOrStdin())
	email := strings.TrimSpace(f.email)
	if email == "" {
		var err error
		if email, err = lines.prompt(errOut(cmd), "Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := lines.password(errOut(cmd), a.printer.Sprintf(locale.MsgPasswordPrompt))
	if err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

func newLoginCmd(a *app) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			email, password, err := flags.read(cmd, a)
			if err != nil {
				return err
			}
			user, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return a.afterAuth(cmd, user, flags.noResume)
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			email, password, err := flags.read(cmd, a)
			if err != nil {
				return err
			}
			user, err := a.client.Register(ctx, client.RegisterRequest{Email: email, Password: password, Name: flags.name})
			if err != nil {
				return err
			}
			return a.afterAuth(cmd, user, flags.noResume)
		},
	}
	flags.bind(cmd, true)
	return cmd
}

// afterAuth reports the login and continues a goal parked by a previous
// command.
func (a *app) afterAuth(cmd *cobra.Command, user *client.User, noResume bool) error {
	fmt.Fprintln(out(cmd), a.printer.Sprintf(locale.MsgLoggedInAs, user.Email))
	if noResume {
		return nil
	}
	goal, err := a.runner.Resume(cmd.Context())
	if err != nil || goal == "" {
		return err
	}
	fmt.Fprintln(out(cmd), a.printer.Sprintf(locale.MsgResumingGoal, goal))
	return a.generate(cmd, goal, generateOptions{noQuestions: true})
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), a.printer.Sprintf(locale.MsgLoggedOut))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account and remaining credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if handled, err := writeOutput(out(cmd), a.format(), user); handled || err != nil {
				return err
			}
			tw := newTable(out(cmd))
			fmt.Fprintf(tw, "Field\tValue\n")
			fmt.Fprintf(tw, "Email\t%s\n", user.Email)
			if user.Name != "" {
				fmt.Fprintf(tw, "Name\t%s\n", user.Name)
			}
			fmt.Fprintf(tw, "Plan\t%s\n", valueOr(user.Plan, "free"))
			fmt.Fprintf(tw, "Credits\t%d\n", user.Credits)
			fmt.Fprintf(tw, "Server\t%s\n", a.ctxCfg.Server)
			flushTable(tw)
			return nil
		},
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
