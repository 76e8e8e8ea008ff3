package midi

import "go-eartrain/music"

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerKeyboard
)

// NoteEvent is sent when a key is pressed on a keyboard
type NoteEvent struct {
	Source   string // controller id
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// PitchClass of the pressed key
func (e NoteEvent) PitchClass() music.PitchClass {
	return PitchClass(e.Note)
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Key presses (note-on with velocity > 0)
	NoteEvents() <-chan NoteEvent

	Close() error
}
