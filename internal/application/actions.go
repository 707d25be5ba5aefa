package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// resultForgetter removes a build from the currently displayed result.
type resultForgetter interface {
	Forget(buildID string)
}

// BuildActions implements the user actions available on a failing build.
type BuildActions struct {
	settings    SettingsReader
	suppression driven.SuppressionStore
	rebuilder   driven.Rebuilder
	opener      driven.URLOpener
	results     resultForgetter
}

// NewBuildActions creates a new BuildActions with all required dependencies.
func NewBuildActions(
	settings SettingsReader,
	suppression driven.SuppressionStore,
	rebuilder driven.Rebuilder,
	opener driven.URLOpener,
	results resultForgetter,
) *BuildActions {
	return &BuildActions{
		settings:    settings,
		suppression: suppression,
		rebuilder:   rebuilder,
		opener:      opener,
		results:     results,
	}
}

// Dismiss marks a build fixed: it is suppressed permanently and removed from
// the current result. A tick already in flight may still show it once more.
func (a *BuildActions) Dismiss(ctx context.Context, buildID string) error {
	if err := a.suppression.Add(ctx, buildID); err != nil {
		return fmt.Errorf("dismiss build %s: %w", buildID, err)
	}
	slog.Info("ignoring build", "build_id", buildID)
	a.results.Forget(buildID)
	return nil
}

// Restart asks the CI system to rebuild buildID and returns the new build's
// ID. When show-build-on-restart is enabled the new build is opened.
func (a *BuildActions) Restart(ctx context.Context, buildID string) (string, error) {
	cfg, err := a.settings.Load(ctx)
	if err != nil {
		return "", err
	}
	if !cfg.HasCredentials() {
		return "", fmt.Errorf("%w: restart build %s: %w", driven.ErrRebuild, buildID, driven.ErrConfigMissing)
	}

	slog.Info("restarting build", "build_id", buildID)
	newID, err := a.rebuilder.Rebuild(ctx, cfg.APIKey, buildID)
	if err != nil {
		return "", err
	}
	slog.Info("created build", "build_id", newID, "restarted_from", buildID)

	if !cfg.ShowBuildOnRestart {
		slog.Debug("show build on restart disabled")
		return newID, nil
	}
	if err := a.opener.OpenURL(model.BuildURL(newID)); err != nil {
		slog.Warn("open restarted build failed", "build_id", newID, "error", err)
	}
	return newID, nil
}

// View opens the build in the browser.
func (a *BuildActions) View(buildID string) error {
	return a.opener.OpenURL(model.BuildURL(buildID))
}
