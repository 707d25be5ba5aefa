package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Classification is the outcome of diffing one fetch against durable state.
type Classification struct {
	// Active holds the errored, non-suppressed builds. It replaces any earlier
	// active set rather than accumulating history.
	Active []model.Build
	// NewlyUnseen is the subset of Active that had not been notified before.
	NewlyUnseen []model.Build
}

// Classify filters raw builds down to the active failing set and the subset
// not yet notified, recording every newly unseen ID in the ledger before it
// returns. Order follows the fetch. A store error aborts classification; IDs
// recorded before the error stay recorded.
func Classify(
	ctx context.Context,
	raw []model.Build,
	suppression driven.SuppressionStore,
	ledger driven.NotificationLedger,
) (Classification, error) {
	var errored []model.Build
	for _, b := range raw {
		if b.IsFailed() {
			errored = append(errored, b)
		}
	}

	active := make([]model.Build, 0, len(errored))
	for _, b := range errored {
		suppressed, err := suppression.Contains(ctx, b.ID)
		if err != nil {
			return Classification{}, fmt.Errorf("check suppression: %w", err)
		}
		if !suppressed {
			active = append(active, b)
		}
	}

	var unseen []model.Build
	for _, b := range active {
		notified, err := ledger.Contains(ctx, b.ID)
		if err != nil {
			return Classification{}, fmt.Errorf("check ledger: %w", err)
		}
		// The same ID can appear twice in one fetch; only the first counts.
		if notified || containsID(unseen, b.ID) {
			continue
		}
		if err := ledger.Add(ctx, b.ID); err != nil {
			return Classification{}, fmt.Errorf("record notified build: %w", err)
		}
		unseen = append(unseen, b)
	}

	slog.Debug("builds classified",
		"fetched", len(raw),
		"errored", len(errored),
		"suppressed", len(errored)-len(active),
		"active", len(active),
		"newly_unseen", len(unseen),
	)

	return Classification{Active: active, NewlyUnseen: unseen}, nil
}

func containsID(builds []model.Build, id string) bool {
	for _, b := range builds {
		if b.ID == id {
			return true
		}
	}
	return false
}
