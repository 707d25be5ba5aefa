package application

import (
	"sync"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Publisher = (*Mailbox)(nil)

// Mailbox is a single-slot, latest-wins handoff between the poll loop and a
// renderer running on its own goroutine. Publish never blocks; an unread
// snapshot is replaced by a newer one.
type Mailbox struct {
	mu sync.Mutex
	ch chan model.Snapshot
}

// NewMailbox creates an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan model.Snapshot, 1)}
}

// Publish stores snapshot, discarding any unread predecessor.
func (m *Mailbox) Publish(snapshot model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
	default:
	}
	m.ch <- snapshot.Clone()
}

// C returns the channel renderers receive snapshots from.
func (m *Mailbox) C() <-chan model.Snapshot {
	return m.ch
}
