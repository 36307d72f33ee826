package geometry

import (
	"errors"
	"testing"
)

func TestNormalizeBasic(t *testing.T) {
	key, err := Normalize(Bounds{X: 10, Y: 20, Width: 100, Height: 50}, 1920, 1080)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := Key{X: 10, Y: 20, Width: 100, Height: 50}
	if key != want {
		t.Errorf("Expected key %v, got %v", want, key)
	}
}

func TestNormalizeClampsOrigin(t *testing.T) {
	// Negative origin gets pulled onto the screen.
	key, err := Normalize(Bounds{X: -30, Y: -5, Width: 100, Height: 50}, 1920, 1080)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if key.X != 0 || key.Y != 0 {
		t.Errorf("Expected origin clamped to 0,0, got %d,%d", key.X, key.Y)
	}

	// Origin beyond the right edge gets pulled back so the rect fits.
	key, err = Normalize(Bounds{X: 1900, Y: 0, Width: 100, Height: 50}, 1920, 1080)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if key.X != 1820 {
		t.Errorf("Expected X clamped to 1820, got %d", key.X)
	}
	if key.Width != 100 {
		t.Errorf("Expected width preserved at 100, got %d", key.Width)
	}
}

func TestNormalizeClampsDimensions(t *testing.T) {
	// Rect larger than the screen shrinks to fit.
	key, err := Normalize(Bounds{X: 0, Y: 0, Width: 4000, Height: 3000}, 1920, 1080)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if key.Width != 1920 || key.Height != 1080 {
		t.Errorf("Expected 1920x1080, got %dx%d", key.Width, key.Height)
	}
}

func TestNormalizeTooSmall(t *testing.T) {
	_, err := Normalize(Bounds{X: 0, Y: 0, Width: 5, Height: 100}, 1920, 1080)
	var tooSmall *TooSmallError
	if !errors.As(err, &tooSmall) {
		t.Fatalf("Expected TooSmallError, got %v", err)
	}
	if tooSmall.Width != 5 {
		t.Errorf("Expected reported width 5, got %d", tooSmall.Width)
	}

	if _, err := Normalize(Bounds{X: 0, Y: 0, Width: 100, Height: 9}, 1920, 1080); err == nil {
		t.Error("Expected error for 9px height")
	}
	if _, err := Normalize(Bounds{X: 0, Y: 0, Width: 10, Height: 10}, 1920, 1080); err != nil {
		t.Errorf("10x10 should be accepted, got %v", err)
	}
}

func TestNormalizeInvalidScreen(t *testing.T) {
	if _, err := Normalize(Bounds{X: 0, Y: 0, Width: 100, Height: 100}, 0, 1080); err == nil {
		t.Error("Expected error for zero screen width")
	}
}

// Normalizing a key's own bounds must be a fixed point.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []Bounds{
		{X: -50, Y: -50, Width: 300, Height: 200},
		{X: 1800, Y: 1000, Width: 500, Height: 500},
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 960, Y: 540, Width: 4000, Height: 11},
	}
	for _, raw := range inputs {
		first, err := Normalize(raw, 1920, 1080)
		if err != nil {
			t.Fatalf("Normalize(%+v) failed: %v", raw, err)
		}
		second, err := Normalize(first.Bounds(), 1920, 1080)
		if err != nil {
			t.Fatalf("Re-normalize of %v failed: %v", first, err)
		}
		if first != second {
			t.Errorf("Normalize not idempotent for %+v: %v != %v", raw, first, second)
		}
	}
}
