// Package screenshot is the rasterizer collaborator: given validated bounds
// it returns an encoded PNG of that screen region.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	"vely-capture/geometry"
)

// Capture rasterizes a screen region and encodes it as PNG. Bounds are
// expected to be pre-clamped by geometry.Normalize; zero-size regions are
// rejected here as a last line of defense.
func Capture(bounds geometry.Bounds) ([]byte, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", bounds.Width, bounds.Height)
	}

	rect := image.Rect(bounds.X, bounds.Y, bounds.X+bounds.Width, bounds.Y+bounds.Height)
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

// DisplaySize returns the primary display dimensions used for clamping
// selection geometry.
func DisplaySize() (width, height int, err error) {
	if screenshot.NumActiveDisplays() == 0 {
		return 0, 0, fmt.Errorf("no active displays found")
	}
	bounds := screenshot.GetDisplayBounds(0)
	return bounds.Dx(), bounds.Dy(), nil
}
