//go:build !windows

package main

// setupPlatform is a no-op outside Windows; display scaling is handled by
// the window system there.
func setupPlatform() {}
