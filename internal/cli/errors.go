package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/goalcheck/goalcheck/internal/client"
	"github.com/goalcheck/goalcheck/internal/locale"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	// ExitAuth means the user has to log in again or lacks permission.
	ExitAuth = 2
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, client.ErrNotLoggedIn),
		errors.Is(err, client.ErrUnauthorized),
		errors.Is(err, client.ErrForbidden):
		return ExitAuth
	default:
		return ExitError
	}
}

// describe turns well known failures into a localized sentence.
func describe(p *message.Printer, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, client.ErrPaymentRequired):
		return p.Sprintf(locale.MsgNoCreditsLeft)
	case errors.Is(err, client.ErrForbidden):
		return p.Sprintf(locale.MsgPermissionDenied)
	case errors.Is(err, client.ErrNotLoggedIn), errors.Is(err, client.ErrUnauthorized):
		return p.Sprintf(locale.MsgNotLoggedIn) + " (goalcheck login)"
	}
	return err.Error()
}

func exitWithError(cmd *cobra.Command, p *message.Printer, err error) {
	cmd.SilenceUsage = true
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", describe(p, err))
}
