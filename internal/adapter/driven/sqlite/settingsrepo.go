package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingsStore = (*SettingsRepo)(nil)

// SettingsRepo is the SQLite implementation of the SettingsStore port interface.
// Secret keys are encrypted when a Cipher is configured; each row records
// whether its value is encrypted.
type SettingsRepo struct {
	db     *DB
	cipher *Cipher // nil stores secrets in plaintext.
}

// NewSettingsRepo creates a new SettingsRepo. cipher may be nil.
func NewSettingsRepo(db *DB, cipher *Cipher) *SettingsRepo {
	return &SettingsRepo{db: db, cipher: cipher}
}

// Get returns the stored value for key. ok is false when nothing is stored.
func (r *SettingsRepo) Get(ctx context.Context, key model.SettingKey) (string, bool, error) {
	const query = `SELECT value, encrypted FROM settings WHERE key = ?`

	var value string
	var encrypted bool
	err := r.db.Reader.QueryRowContext(ctx, query, string(key)).Scan(&value, &encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}

	value, err = r.open(key, value, encrypted)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value for key, replacing any previous value.
func (r *SettingsRepo) Set(ctx context.Context, key model.SettingKey, value string) error {
	stored, encrypted, err := r.seal(key, value)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.Writer.ExecContext(ctx, query, string(key), stored, encrypted); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SetDefault stores value only if key has no row yet.
func (r *SettingsRepo) SetDefault(ctx context.Context, key model.SettingKey, value string) error {
	stored, encrypted, err := r.seal(key, value)
	if err != nil {
		return err
	}

	const query = `INSERT OR IGNORE INTO settings (key, value, encrypted) VALUES (?, ?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, string(key), stored, encrypted); err != nil {
		return fmt.Errorf("set default setting %q: %w", key, err)
	}
	return nil
}

// All returns every stored setting with secrets decrypted.
func (r *SettingsRepo) All(ctx context.Context) (map[model.SettingKey]string, error) {
	const query = `SELECT key, value, encrypted FROM settings ORDER BY key`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	result := make(map[model.SettingKey]string)
	for rows.Next() {
		var key, value string
		var encrypted bool
		if err := rows.Scan(&key, &value, &encrypted); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		value, err = r.open(model.SettingKey(key), value, encrypted)
		if err != nil {
			return nil, err
		}
		result[model.SettingKey(key)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return result, nil
}

func (r *SettingsRepo) seal(key model.SettingKey, value string) (string, bool, error) {
	if !key.Secret() || r.cipher == nil {
		return value, false, nil
	}
	sealed, err := r.cipher.Encrypt(value)
	if err != nil {
		return "", false, fmt.Errorf("encrypt setting %q: %w", key, err)
	}
	return sealed, true, nil
}

func (r *SettingsRepo) open(key model.SettingKey, value string, encrypted bool) (string, error) {
	if !encrypted {
		return value, nil
	}
	if r.cipher == nil {
		return "", fmt.Errorf("read setting %q: %w", key, driven.ErrEncryptionKeyNotSet)
	}
	plain, err := r.cipher.Decrypt(value)
	if err != nil {
		return "", fmt.Errorf("decrypt setting %q: %w", key, err)
	}
	return plain, nil
}
