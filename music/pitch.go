// Package music holds the pitch-class table, keys, scales and spelled notes.
package music

import (
	"errors"
	"fmt"
)

// ErrUnknownPitchClass is returned when a name is not one of the twelve
// pitch classes.
var ErrUnknownPitchClass = errors.New("unknown pitch class")

// PitchClass is a semitone position 0-11 (C = 0).
type PitchClass int

// NumPitchClasses is the size of the chromatic table
const NumPitchClasses = 12

var sharpNames = [NumPitchClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flat spellings, including the theoretical ones that never come out of the
// sharp table but can be entered by hand
var enharmonicFlats = map[string]string{
	"C#": "Db",
	"D#": "Eb",
	"F#": "Gb",
	"G#": "Ab",
	"A#": "Bb",
	"E#": "F",
	"B#": "C",
	"Fb": "E",
	"Cb": "B",
}

// PitchClasses returns all twelve pitch classes in ascending order
func PitchClasses() []PitchClass {
	pcs := make([]PitchClass, NumPitchClasses)
	for i := range pcs {
		pcs[i] = PitchClass(i)
	}
	return pcs
}

// mod12 keeps negative indices in range
func mod12(i int) int {
	return ((i % NumPitchClasses) + NumPitchClasses) % NumPitchClasses
}

// Name returns the canonical sharp spelling
func (pc PitchClass) Name() string {
	return sharpNames[mod12(int(pc))]
}

func (pc PitchClass) String() string {
	return pc.Name()
}

// Transpose moves the pitch class by semitones, wrapping at the octave
func (pc PitchClass) Transpose(semitones int) PitchClass {
	return PitchClass(mod12(int(pc) + semitones))
}

// Enharmonic returns the flat spelling of a sharp-spelled name when useFlats
// is set and a flat spelling exists. Anything else is returned unchanged.
func Enharmonic(name string, useFlats bool) string {
	if !useFlats {
		return name
	}
	if flat, ok := enharmonicFlats[name]; ok {
		return flat
	}
	return name
}

// ParsePitchClass accepts any spelled note name ("C#", "Db", "E#", "Cbb")
// and returns its pitch class.
func ParsePitchClass(name string) (PitchClass, error) {
	n, err := ParseNote(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPitchClass, name)
	}
	return n.PitchClass(), nil
}
