// Package popup shows transient result windows: a countdown while OCR runs,
// then the extracted text for a few seconds.
package popup

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// DefaultVisible is how long a result stays on screen.
const DefaultVisible = 3 * time.Second

// Controller drives one small always-reused popup window.
type Controller struct {
	app   fyne.App
	win   fyne.Window
	label *widget.Label
	stop  chan struct{}
}

// New creates a controller on the given fyne app. The window is created
// lazily on first use.
func New(app fyne.App) *Controller {
	return &Controller{app: app}
}

func (c *Controller) ensureWindow() {
	if c.win != nil {
		return
	}
	c.label = widget.NewLabel("")
	c.label.Wrapping = fyne.TextWrapWord
	win := c.app.NewWindow("Vely Capture")
	win.SetContent(c.label)
	win.Resize(fyne.NewSize(360, 120))
	win.SetFixedSize(true)
	win.CenterOnScreen()
	c.win = win
}

// StartCountdown shows the popup counting down from seconds while a capture
// is processed. Calling UpdateText or Close stops the countdown.
func (c *Controller) StartCountdown(seconds int) error {
	if seconds < 1 {
		seconds = 1
	}
	c.stopCountdown()
	stop := make(chan struct{})
	c.stop = stop

	fyne.Do(func() {
		c.ensureWindow()
		c.label.SetText(fmt.Sprintf("Processing... %ds", seconds))
		c.win.Show()
	})

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		remaining := seconds
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining--
				if remaining < 0 {
					return
				}
				fyne.Do(func() {
					c.label.SetText(fmt.Sprintf("Processing... %ds", remaining))
				})
			}
		}
	}()
	return nil
}

// UpdateText replaces the popup content with the final text and hides the
// window after DefaultVisible.
func (c *Controller) UpdateText(text string) error {
	c.stopCountdown()
	fyne.Do(func() {
		c.ensureWindow()
		c.label.SetText(text)
		c.win.Show()
	})
	go func() {
		time.Sleep(DefaultVisible)
		fyne.Do(func() {
			if c.win != nil {
				c.win.Hide()
			}
		})
	}()
	return nil
}

// Close hides the popup immediately.
func (c *Controller) Close() error {
	c.stopCountdown()
	fyne.Do(func() {
		if c.win != nil {
			c.win.Hide()
		}
	})
	return nil
}

func (c *Controller) stopCountdown() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
