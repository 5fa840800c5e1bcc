package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/session"
)

type localeView struct {
	Locale   string `json:"locale"`
	Language string `json:"language"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`
	Source   string `json:"source"`
}

func newLocaleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locale",
		Short: "Show or change the language, region and timezone",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			view := localeView{
				Locale:   a.loc.String(),
				Language: a.loc.Language(),
				Region:   a.loc.Region,
				Timezone: a.loc.Timezone,
				Source:   "environment",
			}
			if a.settings.Locale != "" || a.settings.Region != "" || a.settings.Timezone != "" {
				view.Source = "settings"
			}
			if a.opts.locale != "" {
				view.Source = "flag"
			}
			if handled, err := writeOutput(out(cmd), a.format(), view); handled || err != nil {
				return err
			}
			tw := newTable(out(cmd))
			fmt.Fprintf(tw, "Field\tValue\n")
			fmt.Fprintf(tw, "Locale\t%s\n", view.Locale)
			fmt.Fprintf(tw, "Region\t%s\n", valueOr(view.Region, "-"))
			fmt.Fprintf(tw, "Timezone\t%s\n", view.Timezone)
			fmt.Fprintf(tw, "Source\t%s\n", view.Source)
			fmt.Fprintf(tw, "Accept-Language\t%s\n", a.loc.AcceptLanguage())
			flushTable(tw)
			return nil
		},
	}

	var region, timezone string
	var reset bool
	set := &cobra.Command{
		Use:   "set [tag]",
		Short: "Store a locale that overrides the environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			settings := a.settings
			if reset {
				settings.Locale, settings.Region, settings.Timezone = "", "", ""
			}
			if len(args) == 1 {
				parsed, ok := locale.Parse(args[0])
				if !ok {
					return fmt.Errorf("unsupported locale %q (supported: %s)", args[0], supportedTags())
				}
				settings.Locale = parsed.String()
			}
			if region != "" {
				settings.Region = strings.ToUpper(region)
			}
			if timezone != "" {
				if _, err := time.LoadLocation(timezone); err != nil {
					return fmt.Errorf("unknown timezone %q", timezone)
				}
				settings.Timezone = timezone
			}
			if err := a.store.SaveSettings(ctx, settings); err != nil {
				return err
			}
			resolved := locale.Resolve(settings, a.getenv)
			fmt.Fprintf(out(cmd), "Locale set to %s (%s).\n", resolved.String(), resolved.Timezone)
			return nil
		},
	}
	set.Flags().StringVar(&region, "region", "", "Region code, e.g. AT")
	set.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. Europe/Vienna")
	set.Flags().BoolVar(&reset, "reset", false, "Forget stored values and follow the environment again")

	cmd.AddCommand(show, set)
	return cmd
}

func supportedTags() string {
	tags := make([]string, 0, len(locale.Supported))
	for _, tag := range locale.Supported {
		tags = append(tags, tag.String())
	}
	return strings.Join(tags, ", ")
}

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Choose the terminal view palette",
	}
	set := &cobra.Command{
		Use:       "set <light|dark>",
		Short:     "Store the palette used by --tui",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{session.ThemeLight, session.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := strings.ToLower(args[0])
			if theme != session.ThemeLight && theme != session.ThemeDark {
				return fmt.Errorf("unknown theme %q (light or dark)", args[0])
			}
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			settings := a.settings
			settings.Theme = theme
			if err := a.store.SaveSettings(ctx, settings); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Theme set to %s.\n", theme)
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}
