package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cli/browser"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	codefreshadapter "github.com/ericfisherdev/cfstatus/internal/adapter/driven/codefresh"
	"github.com/ericfisherdev/cfstatus/internal/adapter/driven/desktop"
	"github.com/ericfisherdev/cfstatus/internal/adapter/driving/headless"
	"github.com/ericfisherdev/cfstatus/internal/adapter/driving/tui"
	"github.com/ericfisherdev/cfstatus/internal/application"
	"github.com/ericfisherdev/cfstatus/internal/config"
	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cfstatus",
		Short: "Watch Codefresh for failed builds",
		Long: `cfstatus polls Codefresh for failed builds committed by a GitHub user,
notifies once per new failure and lets you mark builds fixed or restart them.

Without a subcommand it runs the status view, or logs status changes when
stdout is not a terminal or CFSTATUS_HEADLESS is set.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.AddCommand(newConfigCmd(), newSuppressionCmd(), newLedgerCmd())
	return root
}

func run(parent context.Context) error {
	// 1. Load configuration and decide how to render.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	interactive := !cfg.Headless && isatty.IsTerminal(os.Stdout.Fd())

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Logging, database, stores and settings. The status view owns the
	// terminal, so logs only go to the file in that mode.
	a, err := openApp(ctx, cfg, interactive)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Seed settings from the optional file, never overwriting stored values.
	seed, err := config.LoadSeed(cfg.SettingsFile)
	if err != nil {
		return err
	}
	if err := a.settings.Seed(ctx, seed); err != nil {
		return err
	}
	if len(seed) > 0 {
		slog.Info("settings seeded", "file", cfg.SettingsFile, "keys", len(seed))
	}

	// 5. Wire the poll loop.
	client := codefreshadapter.NewClient(cfg.APIBaseURL)
	mailbox := application.NewMailbox()

	var (
		notifier    driven.Notifier
		tuiNotifier *tui.Notifier
	)
	if interactive {
		tuiNotifier = tui.NewNotifier(os.Stderr)
		notifier = tuiNotifier
		browser.Stdout = io.Discard
		browser.Stderr = io.Discard
	} else {
		notifier = headless.NewNotifier(slog.Default())
	}

	pollSvc := application.NewPollService(
		a.settings,
		client,
		a.suppression,
		a.ledger,
		notifier,
		mailbox,
		model.DefaultPollInterval,
	)
	a.settings.OnIntervalChange(pollSvc)

	actions := application.NewBuildActions(a.settings, a.suppression, client, desktop.Browser{}, pollSvc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pollSvc.Start(ctx)
	}()

	slog.Info("cfstatus started",
		"db_path", cfg.DBPath,
		"interactive", interactive,
		"window", pollSvc.Window().String(),
	)

	// 6. Render until the user quits or a signal arrives.
	if interactive {
		m := tui.NewModel(ctx, pollSvc, actions, a.settings, mailbox.C(), tuiNotifier)
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			stop()
			wg.Wait()
			return err
		}
	} else {
		headless.NewRenderer(slog.Default()).Run(ctx, mailbox.C())
	}

	// 7. Stop polling; an in-flight tick is abandoned through its context.
	stop()
	wg.Wait()
	slog.Info("shutdown complete")
	return nil
}
