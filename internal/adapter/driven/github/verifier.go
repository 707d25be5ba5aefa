// Package github implements the UserVerifier port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserVerifier = (*Verifier)(nil)

// Verifier confirms that a GitHub login exists before it is used as the
// committer filter.
type Verifier struct {
	gh *gh.Client
}

// NewVerifier creates a Verifier with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optionally with PAT auth)
//
// token may be empty; unauthenticated lookups are rate limited harder.
func NewVerifier(token string) *Verifier {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Verifier{gh: client}
}

// NewVerifierWithHTTPClient creates a Verifier with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewVerifierWithHTTPClient(httpClient *http.Client, baseURL string) (*Verifier, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Verifier{gh: client}, nil
}

// VerifyUsername returns driven.ErrUnknownUser when the login does not exist.
func (v *Verifier) VerifyUsername(ctx context.Context, username string) error {
	user, resp, err := v.gh.Users.Get(ctx, username)
	if err != nil {
		var errResp *gh.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", driven.ErrUnknownUser, username)
		}
		return fmt.Errorf("looking up github user %s: %w", username, err)
	}

	if resp != nil && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}

	slog.Debug("github user verified", "login", user.GetLogin())
	return nil
}
