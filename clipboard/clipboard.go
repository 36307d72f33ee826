// Package clipboard delivers OCR results to the system clipboard.
package clipboard

import (
	"fmt"

	"golang.design/x/clipboard"
)

// Init must be called once before Write; it fails when no clipboard backend
// is available (e.g. headless sessions).
func Init() error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	return nil
}

// Write places text on the clipboard. The underlying call reports ownership
// loss through a channel, not an error; delivery is fire-and-forget.
func Write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
