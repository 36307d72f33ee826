// Package coordinator wires the capture subsystem together: selection
// gestures produce geometry, the image cache produces pixels, the permission
// cache gates the rasterizer, and the overlay pool manages the selection
// surface. It holds no state of its own beyond references to those parts.
package coordinator

import (
	"errors"
	"fmt"
	"log"
	"time"

	"vely-capture/geometry"
	"vely-capture/imagecache"
	"vely-capture/ocr"
	"vely-capture/overlay"
	"vely-capture/permission"
	"vely-capture/selection"
)

// ErrPermissionDenied is returned when a required permission is not granted;
// no capture is attempted in that case.
var ErrPermissionDenied = errors.New("required permission not granted")

// requiredPermissions gate the capture path.
var requiredPermissions = []permission.Kind{
	permission.ScreenRecording,
	permission.Accessibility,
}

// Extractor is the optional OCR collaborator.
type Extractor interface {
	Extract(image []byte) (ocr.Result, error)
}

// ScreenSizeFunc reports the display dimensions used for clamping.
type ScreenSizeFunc func() (width, height int, err error)

// Deps are the injected collaborators and subsystem instances. Everything is
// constructed at the application root and passed in; there are no package
// globals anywhere in the subsystem.
type Deps struct {
	Permissions *permission.Cache
	Images      *imagecache.Cache
	Overlays    *overlay.Pool
	Session     *selection.Session
	Rasterize   imagecache.CaptureFunc
	ScreenSize  ScreenSizeFunc
	Surface     overlay.Factory
	OCR         Extractor // nil disables text extraction
}

// Result is a finished capture: the encoded image plus, when OCR ran,
// the extracted text.
type Result struct {
	Key        geometry.Key
	Image      []byte
	Text       string
	Confidence float32
}

type Coordinator struct {
	deps Deps
}

func New(deps Deps) *Coordinator {
	return &Coordinator{deps: deps}
}

// CheckPermission returns the cached grant state for one permission kind.
func (c *Coordinator) CheckPermission(kind permission.Kind) (bool, error) {
	return c.deps.Permissions.Check(kind)
}

// checkRequired verifies every capture-gating permission.
func (c *Coordinator) checkRequired() error {
	for _, kind := range requiredPermissions {
		granted, err := c.deps.Permissions.Check(kind)
		if err != nil {
			// Probe failure is treated as "not granted", never a crash.
			log.Printf("Coordinator: permission probe failed for %s: %v", kind, err)
			return fmt.Errorf("%w: %s", ErrPermissionDenied, kind)
		}
		if !granted {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, kind)
		}
	}
	return nil
}

// CaptureRegion checks permissions, then serves the region from the image
// cache, rasterizing on a miss.
func (c *Coordinator) CaptureRegion(raw geometry.Bounds) ([]byte, error) {
	if err := c.checkRequired(); err != nil {
		return nil, err
	}
	width, height, err := c.deps.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("failed to query display: %w", err)
	}
	return c.deps.Images.GetOrCapture(raw, width, height, c.deps.Rasterize)
}

// CaptureAndExtract captures a region and, when an OCR collaborator is
// configured, extracts text from it. OCR failure fails the whole operation;
// the capture itself stays cached for retry.
func (c *Coordinator) CaptureAndExtract(raw geometry.Bounds) (Result, error) {
	image, err := c.CaptureRegion(raw)
	if err != nil {
		return Result{}, err
	}

	width, height, err := c.deps.ScreenSize()
	if err != nil {
		return Result{}, fmt.Errorf("failed to query display: %w", err)
	}
	key, err := geometry.Normalize(raw, width, height)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", imagecache.ErrInvalidBounds, err)
	}

	res := Result{Key: key, Image: image}
	if c.deps.OCR == nil {
		return res, nil
	}

	extracted, err := c.deps.OCR.Extract(image)
	if err != nil {
		return Result{}, fmt.Errorf("text extraction failed: %w", err)
	}
	res.Text = extracted.Text
	res.Confidence = extracted.Confidence
	return res, nil
}

// ShowOverlay makes the selection surface visible, creating it on first use.
func (c *Coordinator) ShowOverlay() error {
	return c.deps.Overlays.Show(c.deps.Surface)
}

// HideOverlay hides the surface but keeps it pooled.
func (c *Coordinator) HideOverlay() error {
	return c.deps.Overlays.Hide()
}

// ReclaimIdleOverlay destroys the surface if it has been hidden longer than
// threshold. Meant for the periodic maintenance tick.
func (c *Coordinator) ReclaimIdleOverlay(threshold time.Duration) bool {
	return c.deps.Overlays.ReclaimIfIdle(threshold)
}

// BeginSelection anchors a drag gesture.
func (c *Coordinator) BeginSelection(p selection.Point) error {
	return c.deps.Session.BeginDrag(p)
}

// UpdateSelection tracks pointer movement during a drag.
func (c *Coordinator) UpdateSelection(p selection.Point) {
	c.deps.Session.Update(p)
}

// EndSelection finishes the gesture. A nil key with nil error means the drag
// was too small and was quietly cancelled.
func (c *Coordinator) EndSelection() (*geometry.Key, error) {
	width, height, err := c.deps.ScreenSize()
	if err != nil {
		c.deps.Session.Cancel()
		return nil, fmt.Errorf("failed to query display: %w", err)
	}
	return c.deps.Session.EndDrag(width, height)
}

// CancelSelection aborts any in-progress gesture.
func (c *Coordinator) CancelSelection() {
	c.deps.Session.Cancel()
}

// ImageCacheStats reports (entries, totalBytes, expired).
func (c *Coordinator) ImageCacheStats() (int, int, int) {
	return c.deps.Images.Stats()
}

// PermissionStats reports (total, expired).
func (c *Coordinator) PermissionStats() (int, int) {
	return c.deps.Permissions.Stats()
}

// ClearImageCache drops all cached captures.
func (c *Coordinator) ClearImageCache() {
	c.deps.Images.Clear()
}

// ClearPermissions drops all cached permission results.
func (c *Coordinator) ClearPermissions() {
	c.deps.Permissions.Clear()
}

// CleanupExpired sweeps both caches and reports how many entries each
// dropped.
func (c *Coordinator) CleanupExpired() (images, perms int) {
	return c.deps.Images.CleanupExpired(), c.deps.Permissions.CleanupExpired()
}
