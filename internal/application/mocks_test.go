package application_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// --- Mock implementations ---

var errStore = errors.New("disk unavailable")

// memSet is an in-memory BuildIDSet.
type memSet struct {
	mu      sync.Mutex
	ids     map[string]time.Time
	addErr  error
	readErr error
}

func newMemSet(ids ...string) *memSet {
	s := &memSet{ids: make(map[string]time.Time)}
	for _, id := range ids {
		s.ids[id] = time.Now()
	}
	return s
}

func (s *memSet) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return false, s.readErr
	}
	_, ok := s.ids[id]
	return ok, nil
}

func (s *memSet) Add(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	if _, ok := s.ids[id]; !ok {
		s.ids[id] = time.Now()
	}
	return nil
}

func (s *memSet) AddAll(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.Add(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *memSet) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	return nil
}

func (s *memSet) List(_ context.Context) ([]driven.MarkedBuild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]driven.MarkedBuild, 0, len(s.ids))
	for id, at := range s.ids {
		out = append(out, driven.MarkedBuild{BuildID: id, MarkedAt: at})
	}
	return out, nil
}

func (s *memSet) has(id string) bool {
	ok, _ := s.Contains(context.Background(), id)
	return ok
}

// memSettings is an in-memory SettingsStore.
type memSettings struct {
	mu     sync.Mutex
	values map[model.SettingKey]string
	err    error
}

func newMemSettings(values map[model.SettingKey]string) *memSettings {
	m := &memSettings{values: make(map[model.SettingKey]string)}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *memSettings) Get(_ context.Context, key model.SettingKey) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettings) Set(_ context.Context, key model.SettingKey, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *memSettings) SetDefault(_ context.Context, key model.SettingKey, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.values[key]; !ok {
		m.values[key] = value
	}
	return nil
}

func (m *memSettings) All(_ context.Context) (map[model.SettingKey]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[model.SettingKey]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// configured returns settings with credentials and defaults filled in.
func configured() *memSettings {
	return newMemSettings(map[model.SettingKey]string{
		model.SettingAPIKey:               "cf-key",
		model.SettingUsername:             "octocat",
		model.SettingPollIntervalSeconds:  "3600",
		model.SettingNotificationsEnabled: "true",
		model.SettingShowBuildOnRestart:   "true",
	})
}

type fetchCall struct {
	APIKey   string
	Username string
	Window   model.TimeWindow
}

// mockFetcher returns canned builds and records every call.
type mockFetcher struct {
	mu     sync.Mutex
	builds []model.Build
	err    error
	calls  []fetchCall
	delay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (m *mockFetcher) FetchBuilds(ctx context.Context, apiKey, username string, window model.TimeWindow) ([]model.Build, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fetchCall{APIKey: apiKey, Username: username, Window: window})
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Build(nil), m.builds...), nil
}

func (m *mockFetcher) setBuilds(builds ...model.Build) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = builds
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockFetcher) lastCall() fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// mockNotifier records notification requests.
type mockNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.sent...)
}

// mockRebuilder returns a fixed new ID or an error.
type mockRebuilder struct {
	newID string
	err   error
	got   []string
}

func (m *mockRebuilder) Rebuild(_ context.Context, apiKey, buildID string) (string, error) {
	m.got = append(m.got, apiKey+":"+buildID)
	return m.newID, m.err
}

// mockOpener records opened URLs.
type mockOpener struct {
	urls []string
}

func (m *mockOpener) OpenURL(url string) error {
	m.urls = append(m.urls, url)
	return nil
}

// mockVerifier rejects the listed usernames.
type mockVerifier struct {
	unknown map[string]bool
}

func (m *mockVerifier) VerifyUsername(_ context.Context, username string) error {
	if m.unknown[username] {
		return driven.ErrUnknownUser
	}
	return nil
}

func failed(id, repo string) model.Build {
	return model.Build{
		ID:         id,
		RepoName:   repo,
		BranchName: "main",
		Status:     model.BuildStatusError,
		FinishedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func ids(builds []model.Build) []string {
	out := make([]string, 0, len(builds))
	for _, b := range builds {
		out = append(out, b.ID)
	}
	return out
}
