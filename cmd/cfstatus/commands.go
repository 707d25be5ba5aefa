package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/cfstatus/internal/config"
	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// withApp loads configuration, opens the app for a one-shot command and
// closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
	}

	var showSecrets bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tSETTING\tVALUE")
				for _, key := range model.SettingKeys() {
					value, err := a.settings.Get(cmd.Context(), key)
					if err != nil {
						return err
					}
					if key.Secret() && !showSecrets {
						value = mask(value)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", key, key.Label(), value)
				}
				return w.Flush()
			})
		},
	}
	list.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values in clear text")

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := model.SettingKey(args[0])
			if !key.Known() {
				return fmt.Errorf("unknown setting %q (one of %s)", args[0], knownKeys())
			}
			return withApp(cmd.Context(), func(a *app) error {
				value, err := a.settings.Get(cmd.Context(), key)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return a.settings.Set(cmd.Context(), model.SettingKey(args[0]), args[1])
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle KEY",
		Short: "Flip an on/off setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				on, err := a.settings.Toggle(cmd.Context(), model.SettingKey(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], on)
				return nil
			})
		},
	}

	cmd.AddCommand(list, get, set, toggle)
	return cmd
}

func newSuppressionCmd() *cobra.Command {
	return newBuildSetCmd("dismissed", "Builds marked fixed", "restore",
		"Show dismissed builds again on their next failure",
		func(a *app) driven.BuildIDSet { return a.suppression })
}

func newLedgerCmd() *cobra.Command {
	return newBuildSetCmd("notified", "Builds already notified", "forget",
		"Notify about these builds again",
		func(a *app) driven.BuildIDSet { return a.ledger })
}

// newBuildSetCmd builds the list/remove pair for one persisted build ID set.
func newBuildSetCmd(use, short, removeUse, removeShort string, pick func(*app) driven.BuildIDSet) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List build IDs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				marked, err := pick(a).List(cmd.Context())
				if err != nil {
					return err
				}
				return printMarked(cmd.OutOrStdout(), marked, time.Now())
			})
		},
	}

	remove := &cobra.Command{
		Use:   removeUse + " BUILD_ID...",
		Short: removeShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				set := pick(a)
				for _, id := range args {
					if err := set.Remove(cmd.Context(), id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, remove)
	return cmd
}

func printMarked(out io.Writer, marked []driven.MarkedBuild, now time.Time) error {
	if len(marked) == 0 {
		_, err := fmt.Fprintln(out, "no builds")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUILD\tMARKED\tURL")
	for _, m := range marked {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.BuildID, humanize.RelTime(m.MarkedAt, now, "ago", "from now"), model.BuildURL(m.BuildID))
	}
	return w.Flush()
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return "********" + secret[len(secret)-4:]
}

func knownKeys() string {
	keys := model.SettingKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
