package music

import (
	"errors"
	"fmt"
)

// ErrInvalidNote is returned for names that are not letter + accidental
var ErrInvalidNote = errors.New("invalid note")

// DefaultOctave is the single octave used for playback and notation
const DefaultOctave = 4

// Note is a spelled pitch name such as "C", "F#" or "Bb". Two notes are the
// same only if they are spelled the same: "C#" != "Db".
type Note string

// Accidental spellings understood by the engine
const (
	Natural     = ""
	Sharp       = "#"
	Flat        = "b"
	DoubleSharp = "##"
	DoubleFlat  = "bb"
)

var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var accidentalOffsets = map[string]int{
	Natural:     0,
	Sharp:       1,
	Flat:        -1,
	DoubleSharp: 2,
	DoubleFlat:  -2,
}

// ParseNote validates a spelled name. A lower-case letter is upper-cased,
// accidentals are kept as written.
func ParseNote(s string) (Note, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNote)
	}
	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	if _, ok := letterOffsets[letter]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	if _, ok := accidentalOffsets[s[1:]]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	return Note(string(letter) + s[1:]), nil
}

// MustParseNote is ParseNote for literals
func MustParseNote(s string) Note {
	n, err := ParseNote(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Notes converts a list of names, stopping at the first invalid one
func Notes(names ...string) ([]Note, error) {
	out := make([]Note, 0, len(names))
	for _, name := range names {
		n, err := ParseNote(name)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Letter returns the base letter A-G (0 if the note is empty)
func (n Note) Letter() byte {
	if n == "" {
		return 0
	}
	return n[0]
}

// Accidental returns everything after the letter
func (n Note) Accidental() string {
	if len(n) < 2 {
		return ""
	}
	return string(n[1:])
}

// Valid reports whether the note is already in canonical form
func (n Note) Valid() bool {
	parsed, err := ParseNote(string(n))
	return err == nil && parsed == n
}

// Semitones returns the signed offset from C of the same octave, so "Cb" is
// -1 and "B#" is 12.
func (n Note) Semitones() int {
	return letterOffsets[n.Letter()] + accidentalOffsets[n.Accidental()]
}

// PitchClass folds the note into 0-11
func (n Note) PitchClass() PitchClass {
	return PitchClass(mod12(n.Semitones()))
}

// MIDI returns the MIDI note number at the given octave (C4 = 60). The
// octave is the written one, so "Cb4" is 59.
func (n Note) MIDI(octave int) int {
	return (octave+1)*12 + n.Semitones()
}

// UsesFlats reports a flat or double-flat accidental
func (n Note) UsesFlats() bool {
	acc := n.Accidental()
	return acc == Flat || acc == DoubleFlat
}

// UsesSharps reports a sharp or double-sharp accidental
func (n Note) UsesSharps() bool {
	acc := n.Accidental()
	return acc == Sharp || acc == DoubleSharp
}

func (n Note) String() string {
	return string(n)
}
