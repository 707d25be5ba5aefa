package driven

import (
	"context"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

// SettingsStore defines the driven port for durable key/value settings.
// Values are opaque strings; callers coerce them. Set is last-write-wins.
type SettingsStore interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context, key model.SettingKey) (value string, ok bool, err error)
	Set(ctx context.Context, key model.SettingKey, value string) error
	// SetDefault stores value only when key has no value yet. Any stored value,
	// including "false", "0" or "", counts as present.
	SetDefault(ctx context.Context, key model.SettingKey, value string) error
	All(ctx context.Context) (map[model.SettingKey]string, error)
}
