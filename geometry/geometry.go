package geometry

import "fmt"

// MinCaptureSize is the smallest capture dimension (in pixels) that is worth
// rasterizing. Rectangles below this never become cache keys.
const MinCaptureSize = 10

// Bounds is a raw screen rectangle as reported by a pointer gesture, before
// any clamping against the display.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Key is a normalized capture rectangle. It is comparable and used as the
// image cache key; two selections of the same screen area always produce the
// same Key.
type Key struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// Bounds converts the key back to a plain rectangle for the rasterizer.
func (k Key) Bounds() Bounds {
	return Bounds{X: int(k.X), Y: int(k.Y), Width: int(k.Width), Height: int(k.Height)}
}

func (k Key) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", k.Width, k.Height, k.X, k.Y)
}

// TooSmallError reports a rectangle that fell below MinCaptureSize after
// clamping to the display.
type TooSmallError struct {
	Width  int
	Height int
}

func (e *TooSmallError) Error() string {
	return fmt.Sprintf("capture area too small after adjustment: %dx%d", e.Width, e.Height)
}

// Normalize clamps raw bounds to the display and produces a cache key.
// The origin is clamped into [0, screenDim - rawDim], then the dimensions are
// clamped so the rectangle stays on screen. Deterministic: identical input
// always yields an identical key or identical failure.
func Normalize(raw Bounds, screenWidth, screenHeight int) (Key, error) {
	if screenWidth <= 0 || screenHeight <= 0 {
		return Key{}, fmt.Errorf("invalid screen dimensions: %dx%d", screenWidth, screenHeight)
	}

	x := clamp(raw.X, 0, screenWidth-raw.Width)
	y := clamp(raw.Y, 0, screenHeight-raw.Height)

	width := raw.Width
	if max := screenWidth - x; width > max {
		width = max
	}
	height := raw.Height
	if max := screenHeight - y; height > max {
		height = max
	}

	if width < MinCaptureSize || height < MinCaptureSize {
		return Key{}, &TooSmallError{Width: width, Height: height}
	}

	return Key{X: int32(x), Y: int32(y), Width: uint32(width), Height: uint32(height)}, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
