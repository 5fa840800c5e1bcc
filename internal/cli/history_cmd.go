package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/client"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved checklists",
	}
	cmd.PersistentFlags().BoolVar(&remote, "remote", false, "Use the checklists saved on the server instead of local history")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved checklists, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			var (
				lists []checklist.Checklist
				err   error
			)
			if remote {
				lists, err = a.client.SavedChecklists(ctx, limit)
			} else {
				lists, err = a.store.ListChecklists(ctx, historyOwner, limit)
			}
			if err != nil {
				return err
			}
			if lists == nil {
				lists = []checklist.Checklist{}
			}
			if handled, err := writeOutput(out(cmd), a.format(), lists); handled || err != nil {
				return err
			}
			if len(lists) == 0 {
				fmt.Fprintln(out(cmd), a.printer.Sprintf(locale.MsgNoHistory))
				return nil
			}
			tw := newTable(out(cmd))
			fmt.Fprintf(tw, "ID\tGOAL\tITEMS\tLOCALE\tCREATED\n")
			for _, c := range lists {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", shortID(c.ID), c.Goal, len(c.Items), valueOr(c.Locale, "-"), relativeTime(c.CreatedAt))
			}
			flushTable(tw)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of checklists to show")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			c, err := a.loadChecklist(ctx, args[0], remote)
			if err != nil {
				return err
			}
			if handled, err := writeOutput(out(cmd), a.format(), c); handled || err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintf(w, "%s (%s, %s)\n\n", c.Goal, c.ID, valueOr(c.Locale, "-"))
			renderItems(w, a.printer, c.Items)
			return nil
		},
	}

	diff := &cobra.Command{
		Use:   "diff <id> <other-id>",
		Short: "Compare the items of two saved checklists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			left, err := a.loadChecklist(ctx, args[0], remote)
			if err != nil {
				return err
			}
			right, err := a.loadChecklist(ctx, args[1], remote)
			if err != nil {
				return err
			}
			if d := diffChecklists(left, right); d != "" {
				fmt.Fprintf(out(cmd), "--- %s\n+++ %s\n%s", left.ID, right.ID, d)
				return nil
			}
			fmt.Fprintln(out(cmd), "No differences.")
			return nil
		},
	}

	var yes bool
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			if !yes {
				ok, err := newLineReader(cmd.InOrStdin()).confirm(errOut(cmd), fmt.Sprintf("Delete checklist %s? [y/N]: ", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out(cmd), "Aborted.")
					return nil
				}
			}
			var err error
			if remote {
				err = a.client.DeleteSavedChecklist(ctx, args[0])
			} else {
				err = a.store.DeleteChecklist(ctx, historyOwner, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Checklist %s deleted.\n", args[0])
			return nil
		},
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	cmd.AddCommand(list, show, diff, rm)
	return cmd
}

func (a *app) loadChecklist(ctx context.Context, id string, remote bool) (*checklist.Checklist, error) {
	if remote {
		return a.client.SavedChecklist(ctx, id)
	}
	c, err := a.store.GetChecklist(ctx, historyOwner, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checklist %s: %w", id, client.ErrNotFound)
	}
	return c, err
}

// diffChecklists compares items by content. Ids differ between generations
// and are ignored.
func diffChecklists(left, right *checklist.Checklist) string {
	return cmp.Diff(left.Items, right.Items,
		cmpopts.IgnoreFields(checklist.Item{}, "ID"),
		cmpopts.EquateEmpty(),
	)
}
