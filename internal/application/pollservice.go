// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// refreshRequest represents a manual tick trigger.
type refreshRequest struct {
	done chan error
}

// PollService drives the poll -> classify -> notify -> publish cycle. A single
// goroutine (Start) owns the timer and runs every tick, so timer-driven and
// manually triggered ticks can never overlap.
type PollService struct {
	settings    SettingsReader
	fetcher     driven.BuildFetcher
	suppression driven.SuppressionStore
	ledger      driven.NotificationLedger
	notifier    driven.Notifier
	publisher   driven.Publisher
	now         func() time.Time

	refreshCh  chan refreshRequest
	intervalCh chan struct{}

	mu       sync.Mutex
	interval time.Duration
	window   model.TimeWindow
	last     model.Snapshot
}

// NewPollService creates a new PollService with all required dependencies.
// interval is used until the first tick reads the stored setting.
func NewPollService(
	settings SettingsReader,
	fetcher driven.BuildFetcher,
	suppression driven.SuppressionStore,
	ledger driven.NotificationLedger,
	notifier driven.Notifier,
	publisher driven.Publisher,
	interval time.Duration,
) *PollService {
	if interval <= 0 {
		interval = model.DefaultPollInterval
	}
	return &PollService{
		settings:    settings,
		fetcher:     fetcher,
		suppression: suppression,
		ledger:      ledger,
		notifier:    notifier,
		publisher:   publisher,
		now:         time.Now,
		refreshCh:   make(chan refreshRequest),
		intervalCh:  make(chan struct{}, 1),
		interval:    interval,
		window:      model.DefaultTimeWindow,
		last:        model.Snapshot{Status: model.StatusIdle, Window: model.DefaultTimeWindow},
	}
}

// Start runs an immediate tick, then ticks on the configured interval. It also
// serves manual refresh requests. Start blocks until the context is canceled;
// an in-flight tick sees the cancellation through its context.
func (s *PollService) Start(ctx context.Context) {
	_ = s.runTick(ctx, "initial")

	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return
		case <-timer.C:
			_ = s.runTick(ctx, "timer")
			timer.Reset(s.Interval())
		case <-s.intervalCh:
			timer.Reset(s.Interval())
		case req := <-s.refreshCh:
			req.done <- s.runTick(ctx, "manual")
		}
	}
}

// TriggerNow runs a tick outside the timer. It waits for any in-flight tick to
// finish first and blocks until its own tick completes or ctx is canceled.
func (s *PollService) TriggerNow(ctx context.Context) error {
	done := make(chan error, 1)
	req := refreshRequest{done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetInterval changes the tick spacing. It never blocks and never pre-empts
// an in-flight tick; the timer is re-armed with d once the loop is free.
func (s *PollService) SetInterval(d time.Duration) {
	if d <= 0 {
		slog.Warn("ignoring non-positive poll interval", "interval", d)
		return
	}

	s.mu.Lock()
	changed := s.interval != d
	s.interval = d
	s.mu.Unlock()

	if !changed {
		return
	}
	slog.Info("poll interval changed", "interval", d)

	select {
	case s.intervalCh <- struct{}{}:
	default:
	}
}

// Interval returns the current tick spacing.
func (s *PollService) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetTimeWindow selects a new window and refetches immediately.
func (s *PollService) SetTimeWindow(ctx context.Context, w model.TimeWindow) error {
	s.mu.Lock()
	s.window = w
	s.mu.Unlock()

	slog.Info("time window changed", "window", w.String())
	return s.TriggerNow(ctx)
}

// Window returns the selected time window.
func (s *PollService) Window() model.TimeWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Snapshot returns a copy of the most recently published snapshot.
func (s *PollService) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// Forget drops a build from the in-memory result and republishes it. Used
// after a dismissal so the UI updates without waiting for the next tick.
func (s *PollService) Forget(buildID string) {
	s.mu.Lock()
	s.last = s.last.Without(buildID)
	snapshot := s.last.Clone()
	s.mu.Unlock()

	s.publisher.Publish(snapshot)
}

// runTick executes one tick and logs its outcome.
func (s *PollService) runTick(ctx context.Context, trigger string) error {
	start := time.Now()
	err := s.tick(ctx)

	switch {
	case err == nil:
	case errors.Is(err, driven.ErrConfigMissing):
		slog.Warn("skipping poll: missing required setting(s)", "trigger", trigger)
	case ctx.Err() != nil:
		slog.Info("poll canceled", "trigger", trigger)
	default:
		slog.Error("poll cycle failed", "trigger", trigger, "error", err)
	}

	slog.Debug("poll cycle complete",
		"trigger", trigger,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return err
}

// tick performs fetch -> classify -> notify -> publish. A failed fetch
// leaves every store and the last snapshot untouched.
func (s *PollService) tick(ctx context.Context) error {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return err
	}
	s.SetInterval(cfg.PollInterval)

	window := s.Window()

	if !cfg.HasCredentials() {
		s.store(model.Snapshot{
			Status:  model.StatusConfigMissing,
			Window:  window,
			TakenAt: s.now(),
		})
		return driven.ErrConfigMissing
	}

	builds, err := s.fetcher.FetchBuilds(ctx, cfg.APIKey, cfg.Username, window)
	if err != nil {
		return fmt.Errorf("fetch builds: %w", err)
	}

	result, err := Classify(ctx, builds, s.suppression, s.ledger)
	if err != nil {
		return fmt.Errorf("classify builds: %w", err)
	}

	if len(result.NewlyUnseen) > 0 {
		s.notify(ctx, cfg, result.NewlyUnseen)
	}

	status := model.StatusPassing
	if len(result.Active) > 0 {
		status = model.StatusFailing
	}

	s.store(model.Snapshot{
		Status:      status,
		Window:      window,
		Active:      result.Active,
		NewlyUnseen: result.NewlyUnseen,
		TakenAt:     s.now(),
	})

	slog.Info("builds polled",
		"window", window.Token(),
		"fetched", len(builds),
		"active", len(result.Active),
		"newly_unseen", len(result.NewlyUnseen),
	)
	return nil
}

func (s *PollService) notify(ctx context.Context, cfg model.Settings, unseen []model.Build) {
	if !cfg.NotificationsEnabled {
		slog.Info("notifications currently disabled", "newly_unseen", len(unseen))
		return
	}

	n := model.NewNotification(unseen)
	slog.Info("unseen failed builds, triggering notification", "count", n.Count, "repos", n.RepoNames)
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.Error("notification delivery failed", "error", err)
	}
}

func (s *PollService) store(snapshot model.Snapshot) {
	s.mu.Lock()
	s.last = snapshot.Clone()
	s.mu.Unlock()

	s.publisher.Publish(snapshot)
}
