// Package config loads bootstrap configuration from environment variables and
// an optional YAML file of initial settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

const appDir = "cfstatus"

// Config holds the process-level configuration. User-facing settings such as
// the API key live in the settings store, not here.
type Config struct {
	DBPath               string
	LogFile              string
	LogLevel             string
	SecretKey            string
	APIBaseURL           string
	VerifyGitHubUsername bool
	GitHubToken          string
	SettingsFile         string
	Headless             bool
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional:
// CFSTATUS_DB_PATH (<user config dir>/cfstatus/cfstatus.db),
// CFSTATUS_LOG_FILE (next to the database), CFSTATUS_LOG_LEVEL (info),
// CFSTATUS_SECRET_KEY, CFSTATUS_API_BASE_URL, CFSTATUS_VERIFY_GITHUB_USERNAME (false),
// CFSTATUS_GITHUB_TOKEN, CFSTATUS_SETTINGS_FILE and CFSTATUS_HEADLESS (false).
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:     "info",
		SecretKey:    os.Getenv("CFSTATUS_SECRET_KEY"),
		APIBaseURL:   os.Getenv("CFSTATUS_API_BASE_URL"),
		GitHubToken:  os.Getenv("CFSTATUS_GITHUB_TOKEN"),
		SettingsFile: os.Getenv("CFSTATUS_SETTINGS_FILE"),
	}

	if v, ok := os.LookupEnv("CFSTATUS_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("CFSTATUS_DB_PATH is unset and no user config dir is available: %w", err)
		}
		cfg.DBPath = filepath.Join(dir, appDir, "cfstatus.db")
	}

	cfg.LogFile = filepath.Join(filepath.Dir(cfg.DBPath), "cfstatus.log")
	if v, ok := os.LookupEnv("CFSTATUS_LOG_FILE"); ok {
		cfg.LogFile = v
	}

	if v, ok := os.LookupEnv("CFSTATUS_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	var err error
	if cfg.VerifyGitHubUsername, err = boolEnv("CFSTATUS_VERIFY_GITHUB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Headless, err = boolEnv("CFSTATUS_HEADLESS"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func boolEnv(key string) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s has invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

// seedFile is the on-disk shape of the settings seed.
type seedFile struct {
	APIKey               *string  `yaml:"api_key"`
	Username             *string  `yaml:"username"`
	PollIntervalSeconds  *float64 `yaml:"poll_interval_seconds"`
	NotificationsEnabled *bool    `yaml:"notifications_enabled"`
	ShowBuildOnRestart   *bool    `yaml:"show_build_on_restart"`
}

// LoadSeed reads a YAML file of initial settings. Only keys present in the
// file are returned; unknown keys are rejected. An empty path yields no seed.
func LoadSeed(path string) (map[model.SettingKey]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var f seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	seed := make(map[model.SettingKey]string)
	if f.APIKey != nil {
		seed[model.SettingAPIKey] = *f.APIKey
	}
	if f.Username != nil {
		seed[model.SettingUsername] = *f.Username
	}
	if f.PollIntervalSeconds != nil {
		seed[model.SettingPollIntervalSeconds] = strconv.FormatFloat(*f.PollIntervalSeconds, 'f', -1, 64)
	}
	if f.NotificationsEnabled != nil {
		seed[model.SettingNotificationsEnabled] = strconv.FormatBool(*f.NotificationsEnabled)
	}
	if f.ShowBuildOnRestart != nil {
		seed[model.SettingShowBuildOnRestart] = strconv.FormatBool(*f.ShowBuildOnRestart)
	}
	return seed, nil
}
