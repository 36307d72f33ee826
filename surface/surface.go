// Package surface provides the overlay window the user drags on. It is the
// windowing collaborator behind overlay.Pool: a frameless fullscreen window
// whose pointer events drive the selection state machine.
package surface

import (
	"image/color"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"vely-capture/overlay"
	"vely-capture/selection"
)

// Events are the gesture callbacks wired to the selection session. OnEnd
// fires on pointer-up, OnCancel on ESC.
type Events struct {
	OnBegin  func(p selection.Point)
	OnUpdate func(p selection.Point)
	OnEnd    func()
	OnCancel func()
}

// Surface is a pooled fyne overlay window implementing overlay.Surface.
type Surface struct {
	win  fyne.Window
	area *selectionArea
}

// NewFactory returns an overlay.Factory creating fullscreen selection
// windows on the given fyne app. The pool calls it at most once per surface
// lifetime; creation is the expensive step the pool amortizes.
func NewFactory(app fyne.App, events Events) overlay.Factory {
	return func() (overlay.Surface, error) {
		s := &Surface{}
		fyne.DoAndWait(func() {
			win := app.NewWindow("Select Region")
			win.SetPadded(false)
			win.SetFullScreen(true)

			area := newSelectionArea(events)
			win.SetContent(area)
			win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
				if ev.Name == fyne.KeyEscape {
					if events.OnCancel != nil {
						events.OnCancel()
					}
				}
			})

			s.win = win
			s.area = area
		})
		log.Printf("Surface: created fullscreen selection window")
		return s, nil
	}
}

func (s *Surface) Show() error {
	fyne.Do(func() {
		s.area.clearBand()
		s.win.Show()
	})
	return nil
}

func (s *Surface) Hide() error {
	fyne.Do(func() { s.win.Hide() })
	return nil
}

func (s *Surface) Focus() error {
	fyne.Do(func() { s.win.RequestFocus() })
	return nil
}

func (s *Surface) Destroy() error {
	fyne.Do(func() { s.win.Close() })
	return nil
}

// selectionArea is the fullscreen widget that tracks the drag and draws the
// rubber-band rectangle.
type selectionArea struct {
	widget.BaseWidget
	events   Events
	band     *canvas.Rectangle
	dragging bool
	anchor   fyne.Position
}

var _ desktop.Mouseable = (*selectionArea)(nil)
var _ desktop.Hoverable = (*selectionArea)(nil)

func newSelectionArea(events Events) *selectionArea {
	band := canvas.NewRectangle(color.NRGBA{R: 0x3D, G: 0x8B, B: 0xFD, A: 0x40})
	band.StrokeColor = color.NRGBA{R: 0x3D, G: 0x8B, B: 0xFD, A: 0xFF}
	band.StrokeWidth = 1
	band.Hide()

	a := &selectionArea{events: events, band: band}
	a.ExtendBaseWidget(a)
	return a
}

func (a *selectionArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(a.band)
}

func (a *selectionArea) clearBand() {
	a.dragging = false
	a.band.Hide()
	a.band.Refresh()
}

func (a *selectionArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	a.dragging = true
	a.anchor = ev.Position
	a.band.Move(ev.Position)
	a.band.Resize(fyne.NewSize(0, 0))
	a.band.Show()
	if a.events.OnBegin != nil {
		a.events.OnBegin(toPoint(ev))
	}
}

func (a *selectionArea) MouseUp(ev *desktop.MouseEvent) {
	if !a.dragging {
		return
	}
	a.dragging = false
	a.band.Hide()
	a.band.Refresh()
	if a.events.OnEnd != nil {
		a.events.OnEnd()
	}
}

func (a *selectionArea) MouseIn(ev *desktop.MouseEvent) {}

func (a *selectionArea) MouseMoved(ev *desktop.MouseEvent) {
	if !a.dragging {
		return
	}
	a.stretchBand(ev.Position)
	if a.events.OnUpdate != nil {
		a.events.OnUpdate(toPoint(ev))
	}
}

func (a *selectionArea) MouseOut() {}

func (a *selectionArea) stretchBand(p fyne.Position) {
	x := minf(a.anchor.X, p.X)
	y := minf(a.anchor.Y, p.Y)
	w := absf(a.anchor.X - p.X)
	h := absf(a.anchor.Y - p.Y)
	a.band.Move(fyne.NewPos(x, y))
	a.band.Resize(fyne.NewSize(w, h))
	a.band.Refresh()
}

func toPoint(ev *desktop.MouseEvent) selection.Point {
	return selection.Point{X: int(ev.AbsolutePosition.X), Y: int(ev.AbsolutePosition.Y)}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
