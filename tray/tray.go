// Package tray owns the system tray icon and its menu.
package tray

import (
	"log"

	"github.com/getlantern/systray"
)

// Config wires menu actions back into the application.
type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
}

// Icon is a handle to the running tray. UpdateTooltip may be called from any
// goroutine once Run has started.
type Icon struct {
	cfg Config
}

// New prepares a tray icon. Call Run to start it; systray requires its own
// loop, so Run is typically launched in a dedicated goroutine.
func New(cfg Config) *Icon {
	if cfg.Title == "" {
		cfg.Title = "Vely Capture"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Icon{cfg: cfg}
}

// Run blocks inside the systray loop until Quit is called.
func (i *Icon) Run() {
	systray.Run(i.onReady, i.onExit)
}

// Quit stops the systray loop.
func (i *Icon) Quit() {
	systray.Quit()
}

// UpdateTooltip replaces the tray tooltip, used to surface busy state.
func (i *Icon) UpdateTooltip(text string) {
	systray.SetTooltip(text)
}

func (i *Icon) onReady() {
	systray.SetTitle(i.cfg.Title)
	systray.SetTooltip(i.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture Region", "Select a screen region to capture")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if i.cfg.OnCapture != nil {
					i.cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				log.Printf("Tray: quit requested")
				systray.Quit()
			}
		}
	}()
}

func (i *Icon) onExit() {
	if i.cfg.OnExit != nil {
		i.cfg.OnExit()
	}
}
