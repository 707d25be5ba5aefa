package driven

import (
	"context"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

// Notifier delivers a notification request to the user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Publisher receives every snapshot produced by the core. Publish must not block.
type Publisher interface {
	Publish(snapshot model.Snapshot)
}

// URLOpener opens a link in the user's browser.
type URLOpener interface {
	OpenURL(url string) error
}
