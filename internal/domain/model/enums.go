package model

// BuildStatus represents the state of a Codefresh build. Unknown values from
// the API are kept verbatim.
type BuildStatus string

const (
	BuildStatusError      BuildStatus = "error"
	BuildStatusSuccess    BuildStatus = "success"
	BuildStatusRunning    BuildStatus = "running"
	BuildStatusPending    BuildStatus = "pending"
	BuildStatusTerminated BuildStatus = "terminated"
	BuildStatusDelayed    BuildStatus = "delayed"
)

// Status is the overall indicator shown by the status surface.
type Status string

const (
	StatusIdle          Status = "idle"           // No tick has completed yet.
	StatusPassing       Status = "passing"        // No active failing builds.
	StatusFailing       Status = "failing"        // At least one active failing build.
	StatusConfigMissing Status = "config_missing" // API key or username not set.
)
