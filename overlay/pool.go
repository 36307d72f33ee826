// Package overlay manages the lifetime of the selection overlay surface.
// Creating the surface (a transparent fullscreen window) is expensive, so the
// pool keeps one around across gestures: hide instead of destroy, and only
// reclaim it after sitting idle past a threshold.
package overlay

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultIdleThreshold is how long a hidden surface survives before reclaim.
const DefaultIdleThreshold = 300 * time.Second

// Surface is the external windowing collaborator's handle.
type Surface interface {
	Show() error
	Hide() error
	Focus() error
	Destroy() error
}

// Factory creates the surface on first use.
type Factory func() (Surface, error)

// Pool owns at most one Surface. Safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	surface  Surface
	active   bool
	lastUsed time.Time
	now      func() time.Time
}

// NewPool returns an empty pool; the surface is created lazily on Show.
func NewPool() *Pool {
	return &Pool{now: time.Now}
}

// Show makes the overlay visible, creating the surface through create only if
// none exists. An existing surface is reused and refocused. On creation
// failure the pool stays empty.
func (p *Pool) Show(create Factory) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil {
		surface, err := create()
		if err != nil {
			return fmt.Errorf("failed to create overlay surface: %w", err)
		}
		p.surface = surface
		log.Printf("Overlay: created new surface")
	} else {
		log.Printf("Overlay: reusing existing surface")
	}

	if err := p.surface.Show(); err != nil {
		return fmt.Errorf("failed to show overlay: %w", err)
	}
	if err := p.surface.Focus(); err != nil {
		// Focus is best-effort; reused windows sometimes decline it.
		log.Printf("Overlay: could not focus surface: %v", err)
	}
	p.active = true
	p.lastUsed = p.now()
	return nil
}

// Hide makes the overlay invisible but keeps the surface for reuse.
// No-op when no surface exists.
func (p *Pool) Hide() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil {
		return nil
	}
	if err := p.surface.Hide(); err != nil {
		return fmt.Errorf("failed to hide overlay: %w", err)
	}
	p.active = false
	p.lastUsed = p.now()
	log.Printf("Overlay: surface hidden (retained)")
	return nil
}

// ReclaimIfIdle destroys the surface when it is hidden and unused past
// threshold, returning true if a reclaim happened. A shown surface is never
// reclaimed. A threshold <= 0 selects DefaultIdleThreshold.
func (p *Pool) ReclaimIfIdle(threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil || p.active {
		return false
	}
	if p.now().Sub(p.lastUsed) <= threshold {
		return false
	}

	if err := p.surface.Destroy(); err != nil {
		log.Printf("Overlay: destroy during reclaim failed: %v", err)
	}
	p.surface = nil
	log.Printf("Overlay: reclaimed idle surface")
	return true
}

// Active reports whether the overlay is currently shown.
func (p *Pool) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
