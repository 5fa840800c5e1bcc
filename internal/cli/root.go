// Package cli implements the goalcheck command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/goalcheck/goalcheck/internal/ads"
	"github.com/goalcheck/goalcheck/internal/client"
	"github.com/goalcheck/goalcheck/internal/flow"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/session"
	"github.com/goalcheck/goalcheck/internal/store"
)

// Version is stamped at build time.
var Version = "dev"

type globalOptions struct {
	configPath  string
	contextName string
	server      string
	statePath   string
	output      string
	locale      string
	logLevel    string
	debug       bool
}

// app holds what the commands share. Backend state is opened lazily so
// config commands work without a reachable server.
type app struct {
	opts   globalOptions
	getenv func(string) string
	logger *logutil.Logger

	cfg      *Config
	ctxCfg   Context
	store    *store.Store
	client   *client.Client
	runner   *flow.Runner
	settings session.Settings
	loc      locale.Locale
	printer  *message.Printer
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root, a := newRoot(os.Getenv)
	return run(ctx, root, a, os.Args[1:])
}

func run(ctx context.Context, root *cobra.Command, a *app, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		exitWithError(root, a.messages(), err)
	}
	return ExitCode(err)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRoot(os.Getenv)
	return root
}

func newRoot(getenv func(string) string) (*cobra.Command, *app) {
	a := &app{getenv: getenv, logger: logutil.Discard()}
	root := &cobra.Command{
		Use:   "goalcheck",
		Short: "Turn a goal into an actionable checklist",
		Long: `goalcheck asks a few clarifying questions about a goal and streams back a
checklist with tips, links and cost estimates.
Most commands need a session (see 'goalcheck login').`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logutil.ParseLevel(a.opts.logLevel)
			if a.opts.debug {
				level = logutil.LevelDebug
			}
			a.logger = logutil.New(cmd.ErrOrStderr(), level)
			if err := validFormat(a.opts.output); err != nil {
				return err
			}
			cfg, err := LoadConfig(a.opts.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", defaultConfigPath(), "Path to the goalcheck config file")
	flags.StringVar(&a.opts.contextName, "context", "", "Context name to use (overrides current)")
	flags.StringVar(&a.opts.server, "server", "", "Override backend URL")
	flags.StringVar(&a.opts.statePath, "state", "", "Override the state DSN of the context (a file path for sqlite)")
	flags.StringVarP(&a.opts.output, "output", "o", formatTable, "Output format: table|json|yaml")
	flags.StringVar(&a.opts.locale, "locale", "", "Override the language for this invocation, e.g. de-AT")
	flags.StringVar(&a.opts.logLevel, "log-level", "warn", "Diagnostic log level: debug|info|warn|error")
	flags.BoolVar(&a.opts.debug, "debug", false, "Write debug logs to stderr (same as --log-level=debug)")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newQuestionsCmd(a),
		newGenerateCmd(a),
		newHistoryCmd(a),
		newLocaleCmd(a),
		newThemeCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

// resolvedContext merges the config file, environment and flag overrides.
// Without any configured context the default local backend is used.
func (a *app) resolvedContext() (Context, error) {
	name := a.opts.contextName
	if name == "" {
		name = a.cfg.CurrentContext
	}
	var ctx Context
	if name == "" {
		ctx = Context{Name: defaultContext, Server: a.getenv("GOALCHECK_SERVER")}
		if ctx.Server == "" {
			ctx.Server = defaultServer
		}
	} else {
		var ok bool
		ctx, ok = a.cfg.Contexts[name]
		if !ok {
			return Context{}, fmt.Errorf("context %q not found; use 'goalcheck config set-context'", name)
		}
		ctx.Name = name
	}
	if a.opts.server != "" {
		ctx.Server = a.opts.server
	}
	if a.opts.statePath != "" {
		ctx.StateDSN = a.opts.statePath
	}
	driver, err := stateDriver(ctx.StateDriver)
	if err != nil {
		return Context{}, fmt.Errorf("context %q: %w", ctx.Name, err)
	}
	ctx.StateDriver = driver
	if ctx.StateDSN == "" {
		if driver != store.DriverSQLite {
			return Context{}, fmt.Errorf("context %q uses %s state but sets no stateDSN", ctx.Name, driver)
		}
		ctx.StateDSN = defaultStatePath(ctx.Name)
	}
	if ctx.Server == "" {
		return Context{}, fmt.Errorf("context %q is missing a server URL", ctx.Name)
	}
	return ctx, nil
}

// open connects the local state and builds the client.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	resolved, err := a.resolvedContext()
	if err != nil {
		return err
	}
	st, err := store.Open(resolved.StateDSN, resolved.StateDriver)
	if err != nil {
		return err
	}
	settings, err := st.Settings(ctx)
	if err != nil {
		st.Close()
		return err
	}
	loc := locale.Resolve(settings, a.getenv)
	if a.opts.locale != "" {
		parsed, ok := locale.Parse(a.opts.locale)
		if !ok {
			st.Close()
			return fmt.Errorf("unsupported locale %q", a.opts.locale)
		}
		loc.Tag, loc.Region = parsed.Tag, parsed.Region
	}

	a.ctxCfg = resolved
	a.store = st
	a.settings = settings
	a.loc = loc
	a.printer = loc.Printer()
	a.client = client.New(resolved.Server,
		client.WithSessions(st),
		client.WithLocale(loc),
		client.WithLogger(a.logger),
	)
	a.runner = flow.NewRunner(a.client, st, flow.WithLogger(a.logger))
	a.logger.Debug("cli_context", logutil.Fields{"context": resolved.Name, "server": resolved.Server, "state_driver": st.Driver(), "locale": loc.String()})
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// messages returns the printer for the resolved locale, or one detected from
// the environment when nothing was opened yet.
func (a *app) messages() *message.Printer {
	if a.printer != nil {
		return a.printer
	}
	return locale.Detect(a.getenv).Printer()
}

func (a *app) adProvider() (ads.Provider, error) {
	cfg := a.ctxCfg
	return ads.New(cfg.AdProvider, ads.Options{
		AdSenseClient: cfg.AdClient,
		AdSenseSlot:   cfg.AdSlot,
		PropellerZone: cfg.AdSlot,
	})
}

// adSlot renders a slot for the current user. It returns an empty slot for
// premium users or when ads are off.
func (a *app) adSlot(plan string, kind ads.Kind) (ads.Slot, bool) {
	provider, err := a.adProvider()
	if err != nil {
		a.logger.Warn("ads_provider", logutil.Fields{"error": err.Error()})
		return ads.Slot{}, false
	}
	if !ads.Visible(provider, plan) {
		return ads.Slot{}, false
	}
	slot, err := provider.Render(kind)
	if err != nil {
		a.logger.Warn("ads_render", logutil.Fields{"error": err.Error()})
		return ads.Slot{}, false
	}
	return slot, true
}

func (a *app) format() string {
	return strings.ToLower(a.opts.output)
}

func out(cmd *cobra.Command) io.Writer    { return cmd.OutOrStdout() }
func errOut(cmd *cobra.Command) io.Writer { return cmd.ErrOrStderr() }
