package midi

import "go-eartrain/music"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note message sent to or received from a port
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// NoteNumber maps a spelled note to a MIDI key in octave (C4 = 60).
// Notes that fall outside 0-127 are an error.
func NoteNumber(n music.Note, octave int) (uint8, error) {
	if !n.Valid() {
		return 0, music.ErrInvalidNote
	}
	key := n.MIDI(octave)
	if key < 0 || key > 127 {
		return 0, music.ErrInvalidNote
	}
	return uint8(key), nil
}

// PitchClass is the pitch class of a MIDI key, ignoring octave
func PitchClass(key uint8) music.PitchClass {
	return music.PitchClass(int(key) % music.NumPitchClasses)
}
