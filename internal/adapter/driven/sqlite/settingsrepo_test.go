package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

func TestSettingsRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.SettingUsername, "octocat"))

	val, ok, err := repo.Get(ctx, model.SettingUsername)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "octocat", val)
}

func TestSettingsRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db, nil)

	val, ok, err := repo.Get(context.Background(), model.SettingAPIKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", val)
}

func TestSettingsRepo_LastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.SettingPollIntervalSeconds, "10"))
	require.NoError(t, repo.Set(ctx, model.SettingPollIntervalSeconds, "5"))

	val, _, err := repo.Get(ctx, model.SettingPollIntervalSeconds)
	require.NoError(t, err)
	assert.Equal(t, "5", val)
}

func TestSettingsRepo_SetDefaultNeverOverwrites(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"explicit false counts as present", "false"},
		{"zero counts as present", "0"},
		{"empty string counts as present", ""},
		{"regular value", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSettingsRepo(db, nil)
			ctx := context.Background()

			require.NoError(t, repo.Set(ctx, model.SettingNotificationsEnabled, tt.stored))
			require.NoError(t, repo.SetDefault(ctx, model.SettingNotificationsEnabled, "default"))

			val, ok, err := repo.Get(ctx, model.SettingNotificationsEnabled)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.stored, val)
		})
	}
}

func TestSettingsRepo_SetDefaultPopulatesAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.SetDefault(ctx, model.SettingShowBuildOnRestart, "true"))

	val, ok, err := repo.Get(ctx, model.SettingShowBuildOnRestart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", val)
}

func TestSettingsRepo_All(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.SettingUsername, "octocat"))
	require.NoError(t, repo.Set(ctx, model.SettingAPIKey, "k"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.SettingKey]string{
		model.SettingUsername: "octocat",
		model.SettingAPIKey:   "k",
	}, all)
}

func TestSettingsRepo_SecretEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	repo := NewSettingsRepo(db, c)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.SettingAPIKey, "cf-secret"))
	require.NoError(t, repo.Set(ctx, model.SettingUsername, "octocat"))

	var raw string
	var encrypted bool
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		`SELECT value, encrypted FROM settings WHERE key = ?`, string(model.SettingAPIKey),
	).Scan(&raw, &encrypted))
	assert.True(t, encrypted)
	assert.NotContains(t, raw, "cf-secret")

	val, _, err := repo.Get(ctx, model.SettingAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "cf-secret", val)

	// Non-secret keys are stored as-is.
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		`SELECT value, encrypted FROM settings WHERE key = ?`, string(model.SettingUsername),
	).Scan(&raw, &encrypted))
	assert.False(t, encrypted)
	assert.Equal(t, "octocat", raw)
}

func TestSettingsRepo_EncryptedWithoutKey(t *testing.T) {
	db := setupTestDB(t)
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, NewSettingsRepo(db, c).Set(ctx, model.SettingAPIKey, "cf-secret"))

	_, _, err = NewSettingsRepo(db, nil).Get(ctx, model.SettingAPIKey)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestSettingsRepo_SurvivesRestart(t *testing.T) {
	path := testDBPath(t)
	ctx := context.Background()
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	first := reopen(t, path)
	repo := NewSettingsRepo(first, c)
	require.NoError(t, repo.Set(ctx, model.SettingAPIKey, "cf-secret"))
	require.NoError(t, repo.Set(ctx, model.SettingPollIntervalSeconds, "7.5"))
	require.NoError(t, first.Close())

	second := reopen(t, path)
	repo = NewSettingsRepo(second, c)

	val, ok, err := repo.Get(ctx, model.SettingAPIKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cf-secret", val)

	val, _, err = repo.Get(ctx, model.SettingPollIntervalSeconds)
	require.NoError(t, err)
	assert.Equal(t, "7.5", val)
}
