package model

import "time"

// codefreshBuildURL is the web UI location of a single build.
const codefreshBuildURL = "https://g.codefresh.io/build/"

// Build is a single Codefresh build record as returned by the workflow API.
type Build struct {
	ID         string
	RepoName   string
	BranchName string
	Status     BuildStatus
	FinishedAt time.Time // Zero when the build has not finished. Keeps the API's offset.
}

// IsFailed reports whether the build errored and carries a usable ID.
func (b Build) IsFailed() bool {
	return b.Status == BuildStatusError && b.ID != ""
}

// URL returns the Codefresh web UI link for the build.
func (b Build) URL() string {
	return BuildURL(b.ID)
}

// BuildURL returns the Codefresh web UI link for the given build ID.
func BuildURL(id string) string {
	return codefreshBuildURL + id
}
