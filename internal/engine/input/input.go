// Package input turns SDL2 events into viewer events and held-key state.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
	Wheel  int
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool

	dragButton uint8
	dragging   bool
	dragX      int
	dragY      int
}

// New creates a new input handler. Dragging with button tracks relative
// mouse movement.
func New(dragButton uint8) *Input {
	return &Input{
		events:     make([]Event, 0, 16),
		held:       make(map[sdl.Scancode]bool),
		dragButton: dragButton,
	}
}

// Update polls SDL events. Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.begin()
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			quit = true
		}
	}
	return quit
}

func (i *Input) begin() {
	i.events = i.events[:0]
	i.dragX, i.dragY = 0, 0
}

// handle records one event and reports a quit request.
func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		sc := e.Keysym.Scancode
		switch e.Type {
		case sdl.KEYDOWN:
			if e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: sc})
			}
			i.held[sc] = true
		case sdl.KEYUP:
			i.events = append(i.events, Event{Type: EventKeyUp, Key: sc})
			delete(i.held, sc)
		}

	case *sdl.MouseMotionEvent:
		if i.dragging {
			i.dragX += int(e.XRel)
			i.dragY += int(e.YRel)
		}
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
		})

	case *sdl.MouseButtonEvent:
		ev := Event{MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = EventMouseDown
			if e.Button == i.dragButton {
				i.dragging = true
			}
		case sdl.MOUSEBUTTONUP:
			ev.Type = EventMouseUp
			if e.Button == i.dragButton {
				i.dragging = false
			}
		}
		i.events = append(i.events, ev)

	case *sdl.MouseWheelEvent:
		i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: int(e.Y)})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyHeld reports whether a key is down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// Axis returns +1 while positive is held, -1 while negative is held and
// 0 for both or neither.
func (i *Input) Axis(positive, negative sdl.Scancode) float32 {
	var v float32
	if i.held[positive] {
		v++
	}
	if i.held[negative] {
		v--
	}
	return v
}

// Drag returns the mouse movement this frame while the drag button is held.
func (i *Input) Drag() (dx, dy int) {
	return i.dragX, i.dragY
}
