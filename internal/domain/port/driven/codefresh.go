package driven

import (
	"context"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

// BuildFetcher defines the driven port for listing builds from the CI system.
// Implementations never retry; failures wrap ErrAuth, ErrNetwork or ErrProtocol.
type BuildFetcher interface {
	// FetchBuilds returns every build committed by username within window.
	// Results are not paginated.
	FetchBuilds(ctx context.Context, apiKey, username string, window model.TimeWindow) ([]model.Build, error)
}

// Rebuilder defines the driven port for restarting a build.
type Rebuilder interface {
	// Rebuild restarts the given build and returns the new build's ID.
	Rebuild(ctx context.Context, apiKey, buildID string) (string, error)
}

// UserVerifier checks that a username exists upstream. Returns ErrUnknownUser
// when it does not.
type UserVerifier interface {
	VerifyUsername(ctx context.Context, username string) error
}
