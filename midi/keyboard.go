package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-eartrain/debug"
)

// KeyboardController handles a standard MIDI keyboard
type KeyboardController struct {
	id       string
	stopFunc func()

	noteChan  chan NoteEvent
	closeOnce sync.Once
}

// NewKeyboardController creates a keyboard controller (input only). A nil
// port gives a controller that never emits events.
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		noteChan: make(chan NoteEvent, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.handle(msg)
		})
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// handle forwards key presses; a note-on with velocity 0 is a release.
// Events are dropped when the consumer falls behind.
func (kb *KeyboardController) handle(msg gomidi.Message) {
	var channel, note, velocity uint8
	if !msg.GetNoteOn(&channel, &note, &velocity) || velocity == 0 {
		return
	}
	select {
	case kb.noteChan <- NoteEvent{Source: kb.id, Note: note, Velocity: velocity, Channel: channel}:
	default:
		debug.Log("midi", "%s: dropped note %d", kb.id, note)
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *KeyboardController) Close() error {
	kb.closeOnce.Do(func() {
		if kb.stopFunc != nil {
			kb.stopFunc()
		}
		close(kb.noteChan)
	})
	return nil
}
