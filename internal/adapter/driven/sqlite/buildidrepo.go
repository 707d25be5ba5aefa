package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.SuppressionStore   = (*BuildIDRepo)(nil)
	_ driven.NotificationLedger = (*BuildIDRepo)(nil)
)

// BuildIDRepo is the SQLite implementation of a BuildIDSet. The same code
// backs both the suppression store and the notification ledger; only the
// table differs.
type BuildIDRepo struct {
	db    *DB
	table string
	name  string // Used in error messages.
}

// NewSuppressionRepo returns the set of builds the user marked fixed.
func NewSuppressionRepo(db *DB) *BuildIDRepo {
	return &BuildIDRepo{db: db, table: "suppressed_builds", name: "suppressed build"}
}

// NewNotificationRepo returns the ledger of builds already notified about.
func NewNotificationRepo(db *DB) *BuildIDRepo {
	return &BuildIDRepo{db: db, table: "notified_builds", name: "notified build"}
}

// Contains reports whether buildID is a member.
func (r *BuildIDRepo) Contains(ctx context.Context, buildID string) (bool, error) {
	query := `SELECT COUNT(*) FROM ` + r.table + ` WHERE build_id = ?`
	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, buildID).Scan(&count); err != nil {
		return false, fmt.Errorf("check %s %s: %w", r.name, buildID, err)
	}
	return count > 0, nil
}

// Add inserts buildID. Idempotent: silently succeeds if already present.
func (r *BuildIDRepo) Add(ctx context.Context, buildID string) error {
	query := `INSERT OR IGNORE INTO ` + r.table + ` (build_id) VALUES (?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, buildID); err != nil {
		return fmt.Errorf("add %s %s: %w", r.name, buildID, err)
	}
	return nil
}

// AddAll inserts every ID atomically.
func (r *BuildIDRepo) AddAll(ctx context.Context, buildIDs []string) error {
	if len(buildIDs) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add %ss: %w", r.name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO `+r.table+` (build_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare add %ss: %w", r.name, err)
	}
	defer stmt.Close()

	for _, id := range buildIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("add %s %s: %w", r.name, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add %ss: %w", r.name, err)
	}
	return nil
}

// Remove deletes buildID. No-op if it is not a member.
func (r *BuildIDRepo) Remove(ctx context.Context, buildID string) error {
	query := `DELETE FROM ` + r.table + ` WHERE build_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, buildID); err != nil {
		return fmt.Errorf("remove %s %s: %w", r.name, buildID, err)
	}
	return nil
}

// List returns all members ordered by marked_at DESC.
func (r *BuildIDRepo) List(ctx context.Context) ([]driven.MarkedBuild, error) {
	query := `SELECT build_id, marked_at FROM ` + r.table + ` ORDER BY marked_at DESC, build_id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", r.name, err)
	}
	defer rows.Close()

	var result []driven.MarkedBuild
	for rows.Next() {
		var item driven.MarkedBuild
		var markedAt string
		if err := rows.Scan(&item.BuildID, &markedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.name, err)
		}
		item.MarkedAt, err = parseTime(markedAt)
		if err != nil {
			return nil, fmt.Errorf("parse marked_at for %s %s: %w", r.name, item.BuildID, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %ss: %w", r.name, err)
	}
	return result, nil
}
