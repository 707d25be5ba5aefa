// Package desktop adapts local desktop facilities (the default browser).
package desktop

import (
	"fmt"

	"github.com/cli/browser"

	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.URLOpener = Browser{}

// Browser opens links in the user's default browser.
type Browser struct{}

// OpenURL hands url to the platform opener.
func (Browser) OpenURL(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
