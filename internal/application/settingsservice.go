package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// ErrInvalidSetting is returned when a key is unknown or a value cannot be
// coerced to the key's type.
var ErrInvalidSetting = errors.New("invalid setting")

// IntervalSetter receives poll interval changes as soon as they are stored.
type IntervalSetter interface {
	SetInterval(d time.Duration)
}

// SettingsReader is the read side of SettingsService used by the poll loop.
type SettingsReader interface {
	Load(ctx context.Context) (model.Settings, error)
}

// SettingsService coerces and validates values on their way into the settings
// store and exposes a typed view on the way out.
type SettingsService struct {
	store    driven.SettingsStore
	verifier driven.UserVerifier // nil disables username verification.

	mu       sync.RWMutex
	interval IntervalSetter
}

// NewSettingsService creates a SettingsService. verifier may be nil.
func NewSettingsService(store driven.SettingsStore, verifier driven.UserVerifier) *SettingsService {
	return &SettingsService{store: store, verifier: verifier}
}

// OnIntervalChange registers the component that must follow poll interval updates.
func (s *SettingsService) OnIntervalChange(setter IntervalSetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = setter
}

// EnsureDefaults populates default values for absent keys. Stored values are
// never touched.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	for key, value := range model.SettingDefaults() {
		if err := s.store.SetDefault(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Seed applies externally supplied values as defaults: each is coerced like
// Set but only stored when the key is absent.
func (s *SettingsService) Seed(ctx context.Context, values map[model.SettingKey]string) error {
	for key, raw := range values {
		value, err := coerce(key, raw)
		if err != nil {
			return err
		}
		if err := s.store.SetDefault(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the typed settings. Corrupt numeric or boolean values fall
// back to their defaults with a warning.
func (s *SettingsService) Load(ctx context.Context) (model.Settings, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	return model.Settings{
		APIKey:               all[model.SettingAPIKey],
		Username:             all[model.SettingUsername],
		PollInterval:         pollInterval(all[model.SettingPollIntervalSeconds]),
		NotificationsEnabled: boolSetting(all, model.SettingNotificationsEnabled),
		ShowBuildOnRestart:   boolSetting(all, model.SettingShowBuildOnRestart),
	}, nil
}

// Get returns the raw stored value, or "" when absent.
func (s *SettingsService) Get(ctx context.Context, key model.SettingKey) (string, error) {
	value, _, err := s.store.Get(ctx, key)
	return value, err
}

// Set validates value for key, stores it and applies live side effects.
func (s *SettingsService) Set(ctx context.Context, key model.SettingKey, raw string) error {
	value, err := coerce(key, raw)
	if err != nil {
		return err
	}

	if key == model.SettingUsername && value != "" && s.verifier != nil {
		if err := s.verifier.VerifyUsername(ctx, value); err != nil {
			return err
		}
	}

	if err := s.store.Set(ctx, key, value); err != nil {
		return err
	}
	slog.Info("setting updated", "key", string(key), "secret", key.Secret())

	if key == model.SettingPollIntervalSeconds {
		s.mu.RLock()
		setter := s.interval
		s.mu.RUnlock()
		if setter != nil {
			setter.SetInterval(pollInterval(value))
		}
	}
	return nil
}

// Toggle flips a boolean setting and returns the new value.
func (s *SettingsService) Toggle(ctx context.Context, key model.SettingKey) (bool, error) {
	if !key.IsBool() {
		return false, fmt.Errorf("%w: %s is not a toggle", ErrInvalidSetting, key)
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	next := !boolSetting(all, key)

	if err := s.store.Set(ctx, key, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	slog.Info("setting toggled", "key", string(key), "value", next)
	return next, nil
}

// coerce normalises raw into the stored representation of key.
func coerce(key model.SettingKey, raw string) (string, error) {
	if !key.Known() {
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}

	value := strings.TrimSpace(raw)
	switch {
	case key == model.SettingPollIntervalSeconds:
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil || seconds <= 0 {
			return "", fmt.Errorf("%w: %s must be a positive number of seconds, got %q", ErrInvalidSetting, key, raw)
		}
		return value, nil
	case key.IsBool():
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidSetting, key, raw)
		}
		return strconv.FormatBool(b), nil
	default:
		return value, nil
	}
}

// pollInterval parses a seconds value, falling back to the default.
func pollInterval(raw string) time.Duration {
	if raw == "" {
		return model.DefaultPollInterval
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || seconds <= 0 {
		slog.Warn("invalid stored poll interval, using default", "value", raw, "default", model.DefaultPollInterval)
		return model.DefaultPollInterval
	}
	return time.Duration(seconds * float64(time.Second))
}

// boolSetting parses a stored toggle, falling back to its default.
func boolSetting(all map[model.SettingKey]string, key model.SettingKey) bool {
	fallback, _ := strconv.ParseBool(model.SettingDefaults()[key])
	raw, ok := all[key]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid stored toggle, using default", "key", string(key), "value", raw)
		return fallback
	}
	return b
}
