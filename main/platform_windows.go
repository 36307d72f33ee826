//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

// setupPlatform sets per-monitor DPI awareness so overlay coordinates match
// physical pixels on scaled displays. Must run before any window is created.
func setupPlatform() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Printf("DPI: per-monitor DPI awareness set")
		} else {
			log.Printf("DPI: SetProcessDpiAwareness failed, error code: %d", ret)
		}
		return
	}

	// Fallback for systems without Shcore: user32.SetProcessDPIAware (Vista+)
	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		if ret, _, _ := setProcessDPIAware.Call(); ret != 0 {
			log.Printf("DPI: system DPI awareness set (fallback)")
		} else {
			log.Printf("DPI: SetProcessDPIAware failed")
		}
	} else {
		log.Printf("DPI: no DPI awareness API available")
	}
}
