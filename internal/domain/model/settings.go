package model

import "time"

// SettingKey identifies one entry of the settings store.
type SettingKey string

const (
	SettingAPIKey               SettingKey = "api_key"
	SettingUsername             SettingKey = "username"
	SettingPollIntervalSeconds  SettingKey = "poll_interval_seconds"
	SettingNotificationsEnabled SettingKey = "notifications_enabled"
	SettingShowBuildOnRestart   SettingKey = "show_build_on_restart"
)

var settingLabels = map[SettingKey]string{
	SettingAPIKey:               "Codefresh API Key",
	SettingUsername:             "Github Username",
	SettingPollIntervalSeconds:  "Status Check Interval",
	SettingNotificationsEnabled: "Notifications",
	SettingShowBuildOnRestart:   "Show Build on Restart",
}

// SettingKeys lists every known key in menu order.
func SettingKeys() []SettingKey {
	return []SettingKey{
		SettingNotificationsEnabled,
		SettingShowBuildOnRestart,
		SettingAPIKey,
		SettingUsername,
		SettingPollIntervalSeconds,
	}
}

// Label returns the human-readable name of the setting.
func (k SettingKey) Label() string {
	if label, ok := settingLabels[k]; ok {
		return label
	}
	return string(k)
}

// Known reports whether k is one of the fixed setting keys.
func (k SettingKey) Known() bool {
	_, ok := settingLabels[k]
	return ok
}

// Secret reports whether the value must be protected at rest.
func (k SettingKey) Secret() bool {
	return k == SettingAPIKey
}

// IsBool reports whether the setting holds a boolean toggle.
func (k SettingKey) IsBool() bool {
	return k == SettingNotificationsEnabled || k == SettingShowBuildOnRestart
}

// Default poll interval applied when none is stored.
const DefaultPollInterval = 10 * time.Second

// SettingDefaults returns the string values populated on first run. Existing
// values are never overwritten by these.
func SettingDefaults() map[SettingKey]string {
	return map[SettingKey]string{
		SettingPollIntervalSeconds:  "10",
		SettingNotificationsEnabled: "true",
		SettingShowBuildOnRestart:   "true",
	}
}

// Settings is the typed view of the settings store used by the poll loop.
type Settings struct {
	APIKey               string
	Username             string
	PollInterval         time.Duration
	NotificationsEnabled bool
	ShowBuildOnRestart   bool
}

// HasCredentials returns true when both the API key and the username are set.
func (s Settings) HasCredentials() bool {
	return s.APIKey != "" && s.Username != ""
}
