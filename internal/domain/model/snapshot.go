package model

import "time"

// Snapshot is the immutable result of one tick handed to the rendering side.
type Snapshot struct {
	Status      Status
	Window      TimeWindow
	Active      []Build // Active failing builds, in fetch order.
	NewlyUnseen []Build // Subset of Active not notified before this tick.
	TakenAt     time.Time
}

// Clone returns a deep copy so receivers can never alias the producer's slices.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Active = append([]Build(nil), s.Active...)
	out.NewlyUnseen = append([]Build(nil), s.NewlyUnseen...)
	return out
}

// Without returns a copy of the snapshot with the given build removed from
// both result lists. The status is recomputed from what remains.
func (s Snapshot) Without(buildID string) Snapshot {
	out := s
	out.Active = filterOut(s.Active, buildID)
	out.NewlyUnseen = filterOut(s.NewlyUnseen, buildID)
	if out.Status == StatusFailing && len(out.Active) == 0 {
		out.Status = StatusPassing
	}
	return out
}

func filterOut(builds []Build, id string) []Build {
	out := make([]Build, 0, len(builds))
	for _, b := range builds {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// Notification is a request to alert the user about newly failed builds.
type Notification struct {
	Count     int
	RepoNames []string // Distinct, in first-seen order.
}

// NewNotification summarises the given builds.
func NewNotification(builds []Build) Notification {
	seen := make(map[string]bool, len(builds))
	var repos []string
	for _, b := range builds {
		if seen[b.RepoName] {
			continue
		}
		seen[b.RepoName] = true
		repos = append(repos, b.RepoName)
	}
	return Notification{Count: len(builds), RepoNames: repos}
}
