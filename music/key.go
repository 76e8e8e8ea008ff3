package music

import "fmt"

// Key is a pitch class used as the tonal centre of a scale
type Key PitchClass

// Keys with a flat signature. A key uses flats if its sharp name or its
// preferred display name is listed here.
var flatKeys = map[string]bool{
	"F": true, "Bb": true, "Eb": true, "Ab": true, "Db": true, "Gb": true, "Cb": true,
}

// Display names for the black-key tonics
var preferredKeyNames = map[string]string{
	"C#": "Db",
	"D#": "Eb",
	"F#": "Gb",
	"G#": "Ab",
	"A#": "Bb",
}

// Keys returns the twelve keys in chromatic order from C
func Keys() []Key {
	keys := make([]Key, NumPitchClasses)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// ParseKey accepts any spelling of the tonic ("F#", "Gb", "gb")
func ParseKey(name string) (Key, error) {
	pc, err := ParsePitchClass(name)
	if err != nil {
		return 0, fmt.Errorf("parse key: %w", err)
	}
	return Key(pc), nil
}

func (k Key) normalize() Key {
	return Key(mod12(int(k)))
}

// PitchClass returns the tonic
func (k Key) PitchClass() PitchClass {
	return PitchClass(k.normalize())
}

// Name returns the sharp spelling used internally ("C#")
func (k Key) Name() string {
	return k.PitchClass().Name()
}

// DisplayName returns the name shown to users ("Db" for C#)
func (k Key) DisplayName() string {
	name := k.Name()
	if preferred, ok := preferredKeyNames[name]; ok {
		return preferred
	}
	return name
}

func (k Key) String() string {
	return k.DisplayName()
}

// UsesFlats reports whether the key's scales are spelled with flats
func (k Key) UsesFlats() bool {
	name := k.Name()
	return flatKeys[name] || flatKeys[preferredKeyNames[name]]
}

// Next and Prev step chromatically (wrap)
func (k Key) Next() Key { return Key(k.PitchClass().Transpose(1)) }
func (k Key) Prev() Key { return Key(k.PitchClass().Transpose(-1)) }
