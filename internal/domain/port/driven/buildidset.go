package driven

import (
	"context"
	"time"
)

// MarkedBuild records when a build ID entered a BuildIDSet.
type MarkedBuild struct {
	BuildID  string
	MarkedAt time.Time
}

// BuildIDSet defines the driven port for a durable, append-mostly set of build
// IDs. Add is idempotent; each Add is its own atomic write.
type BuildIDSet interface {
	Contains(ctx context.Context, buildID string) (bool, error)
	Add(ctx context.Context, buildID string) error
	// AddAll adds every ID in a single transaction.
	AddAll(ctx context.Context, buildIDs []string) error
	// Remove is a no-op when the ID is absent.
	Remove(ctx context.Context, buildID string) error
	// List returns every member, most recently marked first.
	List(ctx context.Context) ([]MarkedBuild, error)
}

// SuppressionStore holds builds the user marked fixed. Members never appear in
// the active failing set again.
type SuppressionStore interface {
	BuildIDSet
}

// NotificationLedger holds builds a notification has already fired for.
type NotificationLedger interface {
	BuildIDSet
}
