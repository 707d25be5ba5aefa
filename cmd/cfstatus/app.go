package main

import (
	"context"
	"fmt"
	"log/slog"

	githubadapter "github.com/ericfisherdev/cfstatus/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/cfstatus/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/cfstatus/internal/application"
	"github.com/ericfisherdev/cfstatus/internal/config"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
	"github.com/ericfisherdev/cfstatus/internal/logging"
)

// app holds the resources shared by every command.
type app struct {
	log         *logging.Logger
	db          *sqliteadapter.DB
	suppression *sqliteadapter.BuildIDRepo
	ledger      *sqliteadapter.BuildIDRepo
	settings    *application.SettingsService
}

// openApp sets up logging, opens and migrates the database and wires the
// stores, then fills in default settings. quietLogs keeps log output off
// the terminal.
func openApp(ctx context.Context, cfg *config.Config, quietLogs bool) (*app, error) {
	logger, err := logging.New(logging.Options{
		File:  cfg.LogFile,
		Level: cfg.LogLevel,
		Quiet: quietLogs,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.Logger)

	key, err := sqliteadapter.ParseKey(cfg.SecretKey)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("CFSTATUS_SECRET_KEY: %w", err)
	}
	var cipher *sqliteadapter.Cipher
	if key != nil {
		if cipher, err = sqliteadapter.NewCipher(key); err != nil {
			_ = logger.Close()
			return nil, err
		}
	} else {
		slog.Warn("CFSTATUS_SECRET_KEY not set, the API key is stored in plaintext")
	}

	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	slog.Debug("database opened", "path", cfg.DBPath)

	var verifier driven.UserVerifier
	if cfg.VerifyGitHubUsername {
		verifier = githubadapter.NewVerifier(cfg.GitHubToken)
	}

	a := &app{
		log:         logger,
		db:          db,
		suppression: sqliteadapter.NewSuppressionRepo(db),
		ledger:      sqliteadapter.NewNotificationRepo(db),
		settings:    application.NewSettingsService(sqliteadapter.NewSettingsRepo(db, cipher), verifier),
	}
	if err := a.settings.EnsureDefaults(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure default settings: %w", err)
	}
	return a, nil
}

// Close releases the database and the log file.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
	if err := a.log.Close(); err != nil {
		slog.Error("error closing log file", "error", err)
	}
}
