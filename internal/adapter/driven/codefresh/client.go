// Package codefresh implements the BuildFetcher and Rebuilder ports against
// the Codefresh REST API.
package codefresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// DefaultBaseURL is the Codefresh SaaS API root.
const DefaultBaseURL = "https://g.codefresh.io/api"

// unboundedLimit asks the workflow endpoint for every build in one page.
const unboundedLimit = "99999999"

// Request Cache-Control values.
const (
	revalidate = "max-age=0"
	bypass     = "no-cache, no-store"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.BuildFetcher = (*Client)(nil)
	_ driven.Rebuilder    = (*Client)(nil)
)

// Client talks to the Codefresh API. It holds no credentials; the API key is
// passed per call so settings changes apply on the next tick.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client whose transport is an in-memory HTTP cache.
// The cache keys on URL only, so every request overrides freshness: build
// lists are revalidated with the current key and rebuilds bypass it.
func NewClient(baseURL string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	return NewClientWithHTTPClient(&http.Client{
		Transport: cacheTransport,
		Timeout:   30 * time.Second,
	}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// workflowResponse is the subset of the /workflow payload we depend on.
type workflowResponse struct {
	Workflows *struct {
		Docs []buildJSON `json:"docs"`
	} `json:"workflows"`
}

type buildJSON struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	RepoName   string `json:"repoName"`
	BranchName string `json:"branchName"`
	Finished   string `json:"finished"`
}

// FetchBuilds lists webhook and manual builds committed by username within
// window. The API is asked for an unbounded page; pagination is not supported.
func (c *Client) FetchBuilds(ctx context.Context, apiKey, username string, window model.TimeWindow) ([]model.Build, error) {
	params := url.Values{}
	params.Set("inlineView[filters][0][selectedValue]", "type")
	params.Set("inlineView[filters][0][findType]", "is")
	params.Set("inlineView[filters][0][values][0]", "webhook")
	params.Set("inlineView[filters][0][values][1]", "build")
	params.Set("inlineView[filters][1][selectedValue]", "committer")
	params.Set("inlineView[filters][1][findType]", "is")
	params.Set("inlineView[filters][1][values][0]", username)
	params.Set("inlineView[type]", "build")
	params.Set("inlineView[timeFrameStart][0]", window.Token())
	params.Set("limit", unboundedLimit)

	var body workflowResponse
	if err := c.getJSON(ctx, apiKey, "/workflow?"+params.Encode(), revalidate, &body); err != nil {
		return nil, fmt.Errorf("fetching builds for %s (%s): %w", username, window.Token(), err)
	}
	if body.Workflows == nil || body.Workflows.Docs == nil {
		return nil, fmt.Errorf("fetching builds for %s: %w: missing workflows.docs", username, driven.ErrProtocol)
	}

	builds := make([]model.Build, 0, len(body.Workflows.Docs))
	for _, doc := range body.Workflows.Docs {
		b, err := mapBuild(doc)
		if err != nil {
			if b.IsFailed() {
				return nil, fmt.Errorf("fetching builds for %s: %w", username, err)
			}
			slog.Warn("ignoring unparseable finish time", "build", doc.ID, "status", doc.Status, "error", err)
		}
		builds = append(builds, b)
	}

	slog.Debug("codefresh builds fetched",
		"username", username,
		"window", window.Token(),
		"count", len(builds),
	)
	return builds, nil
}

// Rebuild restarts buildID and returns the ID of the newly created build.
func (c *Client) Rebuild(ctx context.Context, apiKey, buildID string) (string, error) {
	var newID string
	if err := c.getJSON(ctx, apiKey, "/builds/rebuild/"+url.PathEscape(buildID), bypass, &newID); err != nil {
		return "", fmt.Errorf("%w: build %s: %w", driven.ErrRebuild, buildID, err)
	}
	if newID == "" {
		return "", fmt.Errorf("%w: build %s: %w: empty build id", driven.ErrRebuild, buildID, driven.ErrProtocol)
	}
	return newID, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
// Failures are classified into ErrAuth, ErrNetwork and ErrProtocol.
func (c *Client) getJSON(ctx context.Context, apiKey, path, cacheControl string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", driven.ErrProtocol, err)
	}
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", cacheControl)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", driven.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: truncated body: %w", driven.ErrProtocol, err)
		}
		return fmt.Errorf("%w: decoding body: %w", driven.ErrProtocol, err)
	}
	// The cache stores a response only once its body reaches EOF.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// classifyStatus maps a non-2xx response onto the error taxonomy.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", driven.ErrAuth, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", driven.ErrNetwork, detail)
	default:
		return fmt.Errorf("%w: %s", driven.ErrProtocol, detail)
	}
}

// mapBuild converts the API document into a domain Build. The finish time
// keeps the offset the API reported. On a bad timestamp the build is still
// returned, with a zero FinishedAt, alongside the error.
func mapBuild(doc buildJSON) (model.Build, error) {
	b := model.Build{
		ID:         doc.ID,
		RepoName:   doc.RepoName,
		BranchName: doc.BranchName,
		Status:     model.BuildStatus(doc.Status),
	}
	if doc.Finished == "" {
		return b, nil
	}
	finished, err := parseFinished(doc.Finished)
	if err != nil {
		return b, fmt.Errorf("%w: build %s: %w", driven.ErrProtocol, doc.ID, err)
	}
	b.FinishedAt = finished
	return b, nil
}

// parseFinished accepts the ISO-8601 variants the API has been seen to emit.
func parseFinished(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z0700",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
