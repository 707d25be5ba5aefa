package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize/english"
)

// Delta is a calendar-aware elapsed time broken into components.
type Delta struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
}

// Elapsed returns the calendar delta between finished and now. Both are
// compared in finished's own zone offset so month and day boundaries match
// the build's local calendar. A finish time after now yields a zero Delta.
func Elapsed(now, finished time.Time) Delta {
	now = now.In(finished.Location())
	if !now.After(finished) {
		return Delta{}
	}

	months := (now.Year()-finished.Year())*12 + int(now.Month()-finished.Month())
	anchor := addMonths(finished, months)
	if anchor.After(now) {
		months--
		anchor = addMonths(finished, months)
	}

	rest := now.Sub(anchor)
	days := int(rest / (24 * time.Hour))
	rest -= time.Duration(days) * 24 * time.Hour
	hours := int(rest / time.Hour)
	rest -= time.Duration(hours) * time.Hour

	return Delta{
		Years:   months / 12,
		Months:  months % 12,
		Days:    days,
		Hours:   hours,
		Minutes: int(rest / time.Minute),
	}
}

// addMonths adds n calendar months, clamping the day to the end of the
// target month instead of overflowing into the next one.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)
	if last := daysIn(year, target); d > last {
		d = last
	}
	return time.Date(year, target, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String renders the delta as "1 day, 3 hours, 12 minutes". Hours and minutes
// are always present; larger units only when non-zero.
func (d Delta) String() string {
	var parts []string
	if d.Years > 0 {
		parts = append(parts, english.Plural(d.Years, "year", ""))
	}
	if d.Months > 0 {
		parts = append(parts, english.Plural(d.Months, "month", ""))
	}
	if d.Days > 0 {
		parts = append(parts, english.Plural(d.Days, "day", ""))
	}
	parts = append(parts,
		english.Plural(d.Hours, "hour", ""),
		english.Plural(d.Minutes, "minute", ""),
	)
	return strings.Join(parts, ", ")
}

// TimeAgo renders how long ago the build finished, e.g. "2 hours, 5 minutes ago".
// Unfinished builds return an empty string.
func (b Build) TimeAgo(now time.Time) string {
	if b.FinishedAt.IsZero() {
		return ""
	}
	return Elapsed(now, b.FinishedAt).String() + " ago"
}

// Title is the one-line description used in build lists.
func (b Build) Title(now time.Time) string {
	ago := b.TimeAgo(now)
	if ago == "" {
		return fmt.Sprintf("%s - %s", b.RepoName, b.BranchName)
	}
	return fmt.Sprintf("%s - %s - %s", b.RepoName, b.BranchName, ago)
}

// Title returns the banner headline, e.g. "2 failed builds since last check".
func (n Notification) Title() string {
	return fmt.Sprintf("%d failed %s since last check", n.Count, english.PluralWord(n.Count, "build", ""))
}

// Subtitle lists the affected repositories.
func (n Notification) Subtitle() string {
	return strings.Join(n.RepoNames, ", ")
}
