package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goalcheck/goalcheck/internal/store"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	var (
		server      string
		driver      string
		dsn         string
		adProvider  string
		adClient    string
		adSlot      string
		makeCurrent bool
	)
	setContextCmd := &cobra.Command{
		Use:   "set-context <name>",
		Short: "Create or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx, exists := a.cfg.Contexts[name]
			if server != "" {
				ctx.Server = server
			}
			if ctx.Server == "" {
				return fmt.Errorf("--server is required")
			}
			ctx.Name = name
			if cmd.Flags().Changed("state-driver") {
				normalized, err := stateDriver(driver)
				if err != nil {
					return err
				}
				ctx.StateDriver = normalized
			}
			if dsn != "" {
				ctx.StateDSN = dsn
			}
			if cmd.Flags().Changed("ads") {
				ctx.AdProvider = adProvider
			}
			if adClient != "" {
				ctx.AdClient = adClient
			}
			if adSlot != "" {
				ctx.AdSlot = adSlot
			}
			a.ctxCfg = ctx
			if _, err := a.adProvider(); err != nil {
				return err
			}
			setContext(a.cfg, ctx, makeCurrent)
			if err := SaveConfig(a.cfg, a.opts.configPath); err != nil {
				return err
			}
			verb := "created"
			if exists {
				verb = "updated"
			}
			fmt.Fprintf(out(cmd), "Context %q %s.\n", name, verb)
			return nil
		},
	}
	setContextCmd.Flags().StringVar(&server, "server", "", "Backend URL")
	setContextCmd.Flags().StringVar(&driver, "state-driver", "", "State database driver: sqlite|postgres")
	setContextCmd.Flags().StringVar(&dsn, "state-dsn", "", "State database DSN (a file path for sqlite)")
	setContextCmd.Flags().StringVar(&adProvider, "ads", "", "Ad provider: mock|adsense|propeller|none")
	setContextCmd.Flags().StringVar(&adClient, "ad-client", "", "AdSense client id")
	setContextCmd.Flags().StringVar(&adSlot, "ad-slot", "", "AdSense slot or PropellerAds zone id")
	setContextCmd.Flags().BoolVar(&makeCurrent, "current", true, "Set as current context")

	useContextCmd := &cobra.Command{
		Use:   "use-context <name>",
		Short: "Switch the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureContextExists(a.cfg, args[0]); err != nil {
				return err
			}
			a.cfg.CurrentContext = args[0]
			if err := SaveConfig(a.cfg, a.opts.configPath); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Switched to context %q.\n", args[0])
			return nil
		},
	}

	currentContextCmd := &cobra.Command{
		Use:   "current-context",
		Short: "Print the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.CurrentContext == "" {
				fmt.Fprintln(out(cmd), "No context configured.")
				return nil
			}
			fmt.Fprintln(out(cmd), a.cfg.CurrentContext)
			return nil
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Show the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handled, err := writeOutput(out(cmd), a.format(), a.cfg); handled || err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Config file: %s\n", a.opts.configPath)
			tw := newTable(out(cmd))
			fmt.Fprintf(tw, "CURRENT\tNAME\tSERVER\tSTATE\tADS\n")
			for _, name := range a.cfg.contextNames() {
				ctx := a.cfg.Contexts[name]
				current := ""
				if a.cfg.CurrentContext == name {
					current = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", current, name, ctx.Server, valueOr(ctx.StateDriver, store.DriverSQLite), valueOr(ctx.AdProvider, "mock"))
			}
			flushTable(tw)
			return nil
		},
	}

	cmd.AddCommand(setContextCmd, useContextCmd, currentContextCmd, viewCmd)
	return cmd
}
