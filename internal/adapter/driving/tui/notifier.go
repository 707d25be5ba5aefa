package tui

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// Notifier delivers notifications to the status view as a banner and rings
// the terminal bell.
type Notifier struct {
	ch   chan model.Notification
	bell io.Writer
}

// NewNotifier creates a Notifier. bell receives the BEL character; nil
// disables the bell.
func NewNotifier(bell io.Writer) *Notifier {
	return &Notifier{ch: make(chan model.Notification, 4), bell: bell}
}

// Notify queues n for the view. It never blocks the poll loop: when the view
// is behind, the notification is dropped and logged.
func (n *Notifier) Notify(_ context.Context, note model.Notification) error {
	select {
	case n.ch <- note:
	default:
		slog.Warn("notification queue full, dropping", "count", note.Count)
	}
	return nil
}

func (n *Notifier) ring() tea.Cmd {
	if n.bell == nil {
		return nil
	}
	w := n.bell
	return func() tea.Msg {
		if _, err := io.WriteString(w, "\a"); err != nil {
			slog.Debug("ring bell", "error", err)
		}
		return nil
	}
}
