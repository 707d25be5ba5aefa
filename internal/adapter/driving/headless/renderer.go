// Package headless renders snapshots and notifications as log records, for
// running without a terminal.
package headless

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// Renderer logs each received snapshot whose visible state changed.
type Renderer struct {
	logger *slog.Logger
	now    func() time.Time
	last   string
}

// NewRenderer creates a Renderer writing to logger.
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger, now: time.Now}
}

// Run consumes snapshots until ctx is canceled or the channel closes.
func (r *Renderer) Run(ctx context.Context, snapshots <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			r.Render(s)
		}
	}
}

// Render logs s unless it shows the same status and builds as the previous one.
func (r *Renderer) Render(s model.Snapshot) {
	key := fingerprint(s)
	if key == r.last {
		return
	}
	r.last = key

	switch s.Status {
	case model.StatusConfigMissing:
		r.logger.Warn("configuration missing",
			"required", []string{string(model.SettingAPIKey), string(model.SettingUsername)})
	case model.StatusPassing:
		r.logger.Info("all builds passing", "window", s.Window.String())
	case model.StatusFailing:
		now := r.now()
		r.logger.Warn("failing builds", "window", s.Window.String(), "count", len(s.Active))
		for _, b := range s.Active {
			r.logger.Warn("failed build", "build_id", b.ID, "title", b.Title(now), "url", b.URL())
		}
	}
}

func fingerprint(s model.Snapshot) string {
	key := string(s.Status) + "|" + s.Window.Token()
	for _, b := range s.Active {
		key += "|" + b.ID
	}
	return key
}

// Notifier writes notifications to the log.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a Notifier writing to logger.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(_ context.Context, note model.Notification) error {
	n.logger.Warn(note.Title(), "repos", note.Subtitle())
	return nil
}
