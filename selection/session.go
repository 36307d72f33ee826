// Package selection turns raw pointer events into validated capture geometry.
// One Session handles one gesture at a time and is reset for reuse after each
// completion or cancellation.
package selection

import (
	"errors"
	"log"
	"sync"

	"vely-capture/geometry"
)

// MinSelectionSize is the smallest drag (per axis, in pixels) that counts as
// a selection rather than a stray click.
const MinSelectionSize = 5

// ErrInvalidTransition reports a state-machine call from the wrong phase.
// Misuse of the session is a programming error; callers log and move on.
var ErrInvalidTransition = errors.New("invalid selection state transition")

// Phase is the gesture state. Completed and Cancelled are transient: the
// session returns to Idle in the same call that reaches them.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Completed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Point is a pointer position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Session is the drag-selection state machine. It is driven by a single
// event source in normal deployment but locks anyway so sharing it across
// goroutines stays safe.
type Session struct {
	mu     sync.Mutex
	phase  Phase
	anchor Point
	live   Point
	bounds geometry.Bounds
	has    bool // provisional bounds computed since last Update
}

// NewSession returns a session in Idle.
func NewSession() *Session {
	return &Session{phase: Idle}
}

// Phase returns the current gesture phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// BeginDrag anchors a new gesture. Valid only from Idle; anything else is
// rejected with ErrInvalidTransition and leaves the session untouched.
func (s *Session) BeginDrag(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Idle {
		log.Printf("Selection: BeginDrag ignored in phase %s", s.phase)
		return ErrInvalidTransition
	}
	s.phase = Dragging
	s.anchor = p
	s.live = p
	s.has = false
	return nil
}

// Update records pointer movement and recomputes the provisional rectangle
// between the anchor and the live point. Outside Dragging it is a silent
// no-op: move events race with gesture teardown, so they are not errors.
func (s *Session) Update(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Dragging {
		return
	}
	s.live = p
	s.bounds = rectBetween(s.anchor, p)
	s.has = true
}

// EndDrag finishes the gesture. Drags below MinSelectionSize on either axis
// cancel quietly (nil key, nil error). Valid drags normalize against the
// screen and return the capture key. Either way the session is Idle on
// return. Calling from outside Dragging returns ErrInvalidTransition.
func (s *Session) EndDrag(screenWidth, screenHeight int) (*geometry.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Dragging {
		log.Printf("Selection: EndDrag ignored in phase %s", s.phase)
		return nil, ErrInvalidTransition
	}

	bounds := s.bounds
	has := s.has
	if !has {
		bounds = rectBetween(s.anchor, s.live)
	}

	if bounds.Width < MinSelectionSize || bounds.Height < MinSelectionSize {
		s.reset(Cancelled)
		log.Printf("Selection: drag below minimum size (%dx%d), cancelled", bounds.Width, bounds.Height)
		return nil, nil
	}

	key, err := geometry.Normalize(bounds, screenWidth, screenHeight)
	if err != nil {
		s.reset(Cancelled)
		return nil, err
	}
	s.reset(Completed)
	log.Printf("Selection: completed %s", key)
	return &key, nil
}

// Cancel aborts any in-progress gesture and returns the session to Idle.
// Safe to call from any phase, any number of times.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Idle {
		return
	}
	s.reset(Cancelled)
	log.Printf("Selection: cancelled")
}

// reset passes through the terminal phase and lands back on Idle, discarding
// gesture data. Called with the lock held.
func (s *Session) reset(terminal Phase) {
	s.phase = terminal
	s.anchor = Point{}
	s.live = Point{}
	s.bounds = geometry.Bounds{}
	s.has = false
	s.phase = Idle
}

func rectBetween(a, b Point) geometry.Bounds {
	return geometry.Bounds{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(a.X - b.X),
		Height: abs(a.Y - b.Y),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
