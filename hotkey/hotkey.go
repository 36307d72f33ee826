// Package hotkey registers a global key combination and fires a callback
// when all of its keys are held. The callback owns the capture workflow;
// this package only detects the chord.
package hotkey

import (
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Listen parses a combo like "Ctrl+Alt+Q" and invokes callback each time the
// full chord is pressed. It returns immediately; event processing runs in a
// background goroutine for the process lifetime.
func Listen(combo string, callback func()) {
	keys := parseCombo(combo)

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}

	var states []keyState
	for _, name := range keys {
		rawcodes := rawcodesFor(name)
		if len(rawcodes) == 0 {
			log.Printf("Hotkey: cannot map key %q, chord may not work", name)
			continue
		}
		states = append(states, keyState{name: name, rawcodes: rawcodes})
	}
	if len(states) == 0 {
		log.Printf("Hotkey: no valid keys in combo %q", combo)
		return
	}
	log.Printf("Hotkey: listening for %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: panic in listener goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("Hotkey: gohook.Start returned nil channel")
			return
		}

		var mu sync.Mutex
		matches := func(raw uint16, s *keyState) bool {
			for _, rc := range s.rawcodes {
				if raw == rc {
					return true
				}
			}
			return false
		}

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				mu.Lock()
				for i := range states {
					if matches(ev.Rawcode, &states[i]) {
						states[i].pressed = true
					}
				}
				all := true
				for i := range states {
					if !states[i].pressed {
						all = false
						break
					}
				}
				if all {
					for i := range states {
						states[i].pressed = false
					}
					mu.Unlock()
					log.Printf("Hotkey: %s activated", combo)
					if callback != nil {
						callback()
					}
					continue
				}
				mu.Unlock()
			case gohook.KeyUp:
				mu.Lock()
				for i := range states {
					if matches(ev.Rawcode, &states[i]) {
						states[i].pressed = false
					}
				}
				mu.Unlock()
			}
		}
		log.Printf("Hotkey: event channel closed")
	}()
}

// parseCombo normalizes "Ctrl+Alt+q" into lowercase key names.
func parseCombo(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// rawcodesFor maps a key name to its virtual key codes; modifiers map to
// both left and right variants.
func rawcodesFor(name string) []uint16 {
	switch name {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "cmd":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter", "return":
		return []uint16{13}
	case "esc", "escape":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	}

	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 65)} // VK_A..VK_Z
		case c >= '0' && c <= '9':
			return []uint16{uint16(c - '0' + 48)} // VK_0..VK_9
		}
	}

	// Function keys F1-F24 map to VK 112..135.
	if strings.HasPrefix(name, "f") && len(name) <= 3 {
		n := 0
		for _, r := range name[1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	return nil
}
