// Package eventloop is the single-goroutine coordinator for capture cycles.
// Hotkey and gesture events are posted into channels and handled here, so
// the caches and the selection session see one caller; OCR runs on the
// worker pool and funnels back through the results channel. A maintenance
// ticker doubles as the external scheduler for cache cleanup and overlay
// reclaim.
package eventloop

import (
	"context"
	"errors"
	"log"
	"time"

	"vely-capture/coordinator"
	"vely-capture/ocr"
	"vely-capture/worker"
)

// PopupController mirrors the popup package surface so tests can fake it.
type PopupController interface {
	StartCountdown(seconds int) error
	UpdateText(text string) error
	Close() error
}

// Options configure a Loop. Deliver receives successful OCR text
// (typically the clipboard); Tooltip reflects busy state on the tray.
type Options struct {
	Deadline        time.Duration
	CleanupInterval time.Duration
	OverlayIdle     time.Duration
	Popup           PopupController
	Deliver         func(text string) error
	Tooltip         func(text string)
	DefaultTooltip  string
}

type result struct {
	res ocr.Result
	err error
}

var errWorkerBusy = errors.New("recognition worker busy")

// Loop processes capture events. Construct with New, wire the surface and
// hotkey callbacks to the Post methods, then call Run.
type Loop struct {
	coord *coordinator.Coordinator
	pool  *worker.Pool
	opts  Options

	busy     bool
	hotkeyCh chan struct{}
	endCh    chan struct{}
	cancelCh chan struct{}
	results  chan result
}

// New creates a loop around the coordinator and worker pool.
func New(coord *coordinator.Coordinator, pool *worker.Pool, opts Options) *Loop {
	if opts.Deadline <= 0 {
		opts.Deadline = 15 * time.Second
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 60 * time.Second
	}
	if opts.DefaultTooltip == "" {
		opts.DefaultTooltip = "Vely Capture"
	}
	return &Loop{
		coord:    coord,
		pool:     pool,
		opts:     opts,
		hotkeyCh: make(chan struct{}, 4),
		endCh:    make(chan struct{}, 1),
		cancelCh: make(chan struct{}, 1),
		results:  make(chan result, 1),
	}
}

// PostHotkey requests a new capture cycle; extra events while one is queued
// are dropped.
func (l *Loop) PostHotkey() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// PostSelectionEnd signals pointer-up on the overlay.
func (l *Loop) PostSelectionEnd() {
	select {
	case l.endCh <- struct{}{}:
	default:
	}
}

// PostSelectionCancel signals ESC on the overlay.
func (l *Loop) PostSelectionCancel() {
	select {
	case l.cancelCh <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.CleanupInterval)
	defer ticker.Stop()
	defer l.pool.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleHotkey()
		case <-l.endCh:
			l.handleSelectionEnd(ctx)
		case <-l.cancelCh:
			l.handleSelectionCancel()
		case res := <-l.results:
			l.handleResult(res)
		case <-ticker.C:
			l.runMaintenance()
		}
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.opts.Tooltip == nil {
		return
	}
	if b {
		l.opts.Tooltip("Vely Capture: processing...")
	} else {
		l.opts.Tooltip(l.opts.DefaultTooltip)
	}
}

func (l *Loop) handleHotkey() {
	if l.busy {
		log.Printf("Loop: busy, capture request dropped")
		return
	}
	if err := l.coord.ShowOverlay(); err != nil {
		log.Printf("Loop: failed to show overlay: %v", err)
	}
}

func (l *Loop) handleSelectionEnd(ctx context.Context) {
	key, err := l.coord.EndSelection()
	if hideErr := l.coord.HideOverlay(); hideErr != nil {
		log.Printf("Loop: failed to hide overlay: %v", hideErr)
	}
	if err != nil {
		log.Printf("Loop: selection failed: %v", err)
		return
	}
	if key == nil {
		// Sub-minimum drag; nothing to capture.
		return
	}

	// Capture goes through the cache synchronously; only the OCR step is
	// slow enough to warrant the worker pool.
	image, err := l.coord.CaptureRegion(key.Bounds())
	if err != nil {
		log.Printf("Loop: capture failed: %v", err)
		l.deliver(ocr.Result{}, err)
		return
	}

	l.setBusy(true)
	if l.opts.Popup != nil {
		seconds := int(l.opts.Deadline / time.Second)
		l.opts.Popup.StartCountdown(seconds)
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.opts.Deadline)
	submitted := l.pool.Submit(jobCtx, image, func(res ocr.Result, err error) {
		defer cancel()
		l.results <- result{res: res, err: err}
	})
	if !submitted {
		cancel()
		log.Printf("Loop: worker pool busy, dropping job")
		l.deliver(ocr.Result{}, errWorkerBusy)
	}
}

func (l *Loop) handleSelectionCancel() {
	l.coord.CancelSelection()
	if err := l.coord.HideOverlay(); err != nil {
		log.Printf("Loop: failed to hide overlay: %v", err)
	}
}

func (l *Loop) handleResult(res result) {
	l.deliver(res.res, res.err)
}

func (l *Loop) deliver(res ocr.Result, err error) {
	l.setBusy(false)
	if err != nil {
		log.Printf("Loop: capture cycle failed: %v", err)
		if l.opts.Popup != nil {
			l.opts.Popup.Close()
		}
		return
	}
	if l.opts.Popup != nil {
		if perr := l.opts.Popup.UpdateText(res.Text); perr != nil {
			log.Printf("Loop: popup update failed: %v", perr)
		}
	}
	if l.opts.Deliver != nil && res.Text != "" {
		if derr := l.opts.Deliver(res.Text); derr != nil {
			log.Printf("Loop: delivery failed: %v", derr)
		}
	}
}

func (l *Loop) runMaintenance() {
	images, perms := l.coord.CleanupExpired()
	if images > 0 || perms > 0 {
		log.Printf("Loop: maintenance removed %d image, %d permission entries", images, perms)
	}
	if l.coord.ReclaimIdleOverlay(l.opts.OverlayIdle) {
		log.Printf("Loop: reclaimed idle overlay surface")
	}
}
