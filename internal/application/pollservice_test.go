package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cfstatus/internal/application"
	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// harness bundles a running PollService and its collaborators.
type harness struct {
	svc         *application.PollService
	settings    *application.SettingsService
	store       *memSettings
	fetcher     *mockFetcher
	suppression *memSet
	ledger      *memSet
	notifier    *mockNotifier
	mailbox     *application.Mailbox
	stop        func()
}

// startHarness creates a PollService, starts it in the background and stops
// it when the test ends. TriggerNow returns only after the initial tick.
func startHarness(t *testing.T, store *memSettings, fetcher *mockFetcher) *harness {
	t.Helper()

	h := &harness{
		store:       store,
		settings:    application.NewSettingsService(store, nil),
		fetcher:     fetcher,
		suppression: newMemSet(),
		ledger:      newMemSet(),
		notifier:    &mockNotifier{},
		mailbox:     application.NewMailbox(),
	}
	h.svc = application.NewPollService(h.settings, fetcher, h.suppression, h.ledger, h.notifier, h.mailbox, time.Hour)
	h.settings.OnIntervalChange(h.svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.svc.Start(ctx)
		close(done)
	}()

	h.stop = func() {
		cancel()
		<-done
	}
	t.Cleanup(h.stop)
	return h
}

func TestPollService_TickPublishesAndNotifies(t *testing.T) {
	fetcher := &mockFetcher{builds: []model.Build{
		failed("b1", "api"),
		failed("b2", "web"),
		{ID: "b3", Status: model.BuildStatusSuccess, RepoName: "api"},
	}}
	h := startHarness(t, configured(), fetcher)

	require.NoError(t, h.svc.TriggerNow(context.Background()))

	snap := h.svc.Snapshot()
	assert.Equal(t, model.StatusFailing, snap.Status)
	assert.Equal(t, []string{"b1", "b2"}, ids(snap.Active))

	// Only the initial tick saw the builds as new.
	notes := h.notifier.notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, 2, notes[0].Count)
	assert.Equal(t, []string{"api", "web"}, notes[0].RepoNames)

	call := fetcher.lastCall()
	assert.Equal(t, fetchCall{APIKey: "cf-key", Username: "octocat", Window: model.TimeWindowToday}, call)

	published := <-h.mailbox.C()
	assert.Equal(t, []string{"b1", "b2"}, ids(published.Active))
	assert.Empty(t, published.NewlyUnseen, "latest snapshot is the second tick")
}

func TestPollService_ConfigMissingSkipsFetch(t *testing.T) {
	store := configured()
	delete(store.values, model.SettingAPIKey)
	fetcher := &mockFetcher{builds: []model.Build{failed("b1", "r1")}}
	h := startHarness(t, store, fetcher)

	err := h.svc.TriggerNow(context.Background())
	assert.ErrorIs(t, err, driven.ErrConfigMissing)
	assert.Equal(t, 0, fetcher.callCount())
	assert.Equal(t, model.StatusConfigMissing, h.svc.Snapshot().Status)

	// Recovery is automatic once the setting is supplied.
	require.NoError(t, h.settings.Set(context.Background(), model.SettingAPIKey, "cf-key"))
	require.NoError(t, h.svc.TriggerNow(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, model.StatusFailing, h.svc.Snapshot().Status)
}

func TestPollService_LiveIntervalChange(t *testing.T) {
	fetcher := &mockFetcher{}
	h := startHarness(t, configured(), fetcher)

	require.NoError(t, h.svc.TriggerNow(context.Background()))
	before := fetcher.callCount()
	assert.Equal(t, time.Hour, h.svc.Interval())

	require.NoError(t, h.settings.Set(context.Background(), model.SettingPollIntervalSeconds, "0.02"))
	assert.Equal(t, 20*time.Millisecond, h.svc.Interval())

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= before+5
	}, 2*time.Second, 5*time.Millisecond, "ticks should follow the new interval without restart")
}

func TestPollService_TicksNeverOverlap(t *testing.T) {
	store := configured()
	store.values[model.SettingPollIntervalSeconds] = "0.005"
	fetcher := &mockFetcher{delay: 10 * time.Millisecond, builds: []model.Build{failed("b1", "r")}}
	h := startHarness(t, store, fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.svc.TriggerNow(context.Background())
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, fetcher.callCount(), 9)
	assert.Equal(t, int32(1), fetcher.maxInFlight.Load())
	assert.Len(t, h.notifier.notifications(), 1, "ledger must not race into duplicate notifications")
}

func TestPollService_FetchErrorMutatesNothing(t *testing.T) {
	fetcher := &mockFetcher{builds: []model.Build{failed("b1", "r1")}}
	h := startHarness(t, configured(), fetcher)
	require.NoError(t, h.svc.TriggerNow(context.Background()))
	before := h.svc.Snapshot()

	fetcher.mu.Lock()
	fetcher.err = fmt.Errorf("listing: %w", driven.ErrAuth)
	fetcher.builds = []model.Build{failed("b2", "r2")}
	fetcher.mu.Unlock()

	err := h.svc.TriggerNow(context.Background())
	assert.ErrorIs(t, err, driven.ErrAuth)
	assert.False(t, h.ledger.has("b2"))
	assert.Equal(t, before, h.svc.Snapshot())
}

func TestPollService_NotificationsDisabledStillRecordsLedger(t *testing.T) {
	store := configured()
	store.values[model.SettingNotificationsEnabled] = "false"
	fetcher := &mockFetcher{builds: []model.Build{failed("b1", "r1")}}
	h := startHarness(t, store, fetcher)

	require.NoError(t, h.svc.TriggerNow(context.Background()))

	assert.Empty(t, h.notifier.notifications())
	assert.True(t, h.ledger.has("b1"))
}

func TestPollService_SetTimeWindowRefetches(t *testing.T) {
	fetcher := &mockFetcher{}
	h := startHarness(t, configured(), fetcher)
	require.NoError(t, h.svc.TriggerNow(context.Background()))
	before := fetcher.callCount()

	require.NoError(t, h.svc.SetTimeWindow(context.Background(), model.TimeWindowThisMonth))

	assert.Equal(t, before+1, fetcher.callCount())
	assert.Equal(t, model.TimeWindowThisMonth, fetcher.lastCall().Window)
	assert.Equal(t, model.TimeWindowThisMonth, h.svc.Snapshot().Window)
	assert.Equal(t, model.StatusPassing, h.svc.Snapshot().Status)
}

func TestPollService_StopAbandonsInFlightTick(t *testing.T) {
	fetcher := &mockFetcher{delay: time.Hour}
	h := startHarness(t, configured(), fetcher)

	stopped := make(chan struct{})
	go func() {
		h.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
	assert.Equal(t, model.StatusIdle, h.svc.Snapshot().Status)
}

func TestPollService_TriggerNowHonoursContext(t *testing.T) {
	fetcher := &mockFetcher{delay: time.Hour}
	h := startHarness(t, configured(), fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := h.svc.TriggerNow(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPollService_SetIntervalIgnoresNonPositive(t *testing.T) {
	svc := application.NewPollService(nil, nil, nil, nil, nil, application.NewMailbox(), 0)
	assert.Equal(t, model.DefaultPollInterval, svc.Interval())

	svc.SetInterval(-time.Second)
	assert.Equal(t, model.DefaultPollInterval, svc.Interval())

	svc.SetInterval(3 * time.Second)
	assert.Equal(t, 3*time.Second, svc.Interval())
}
