package music

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownScale is returned for scale names outside the fixed set
var ErrUnknownScale = errors.New("unknown scale")

// ScaleType identifies an interval pattern
type ScaleType int

const (
	ScaleChromatic ScaleType = iota
	ScaleMajor
	ScaleMinor
	ScalePentatonic
	ScaleBlues
	ScaleCount
)

// Scale definitions - intervals from root (semitones), ascending
var scales = map[ScaleType][]int{
	ScaleChromatic:  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	ScaleMajor:      {0, 2, 4, 5, 7, 9, 11},
	ScaleMinor:      {0, 2, 3, 5, 7, 8, 10},
	ScalePentatonic: {0, 2, 4, 7, 9},
	ScaleBlues:      {0, 3, 5, 6, 7, 10},
}

var scaleNames = []string{"chromatic", "major", "minor", "pentatonic", "blues"}

// ScaleTypes returns every scale in display order
func ScaleTypes() []ScaleType {
	out := make([]ScaleType, 0, ScaleCount)
	for s := ScaleType(0); s < ScaleCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseScaleType resolves a case-insensitive scale name
func ParseScaleType(name string) (ScaleType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range scaleNames {
		if n == name {
			return ScaleType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, name)
}

func (s ScaleType) String() string {
	if s < 0 || s >= ScaleCount {
		return fmt.Sprintf("scale(%d)", int(s))
	}
	return scaleNames[s]
}

// Intervals returns a copy of the semitone offsets
func (s ScaleType) Intervals() []int {
	return append([]int(nil), scales[s]...)
}

// Next cycles through the scales (wraps)
func (s ScaleType) Next() ScaleType {
	return (s + 1) % ScaleCount
}

type scaleKey struct {
	key   Key
	scale ScaleType
}

var (
	scaleCache   = make(map[scaleKey][]Note)
	scaleCacheMu sync.RWMutex
)

// ScaleNotes returns the spelled notes of scale in key, ascending from the
// tonic. Flat keys spell every note with flats, other keys with sharps.
// The result is a fresh slice the caller may modify.
func ScaleNotes(key Key, scale ScaleType) []Note {
	k := scaleKey{key: key.normalize(), scale: scale}

	scaleCacheMu.RLock()
	cached, ok := scaleCache[k]
	scaleCacheMu.RUnlock()
	if !ok {
		cached = buildScale(k.key, scale)
		scaleCacheMu.Lock()
		scaleCache[k] = cached
		scaleCacheMu.Unlock()
	}

	return append([]Note(nil), cached...)
}

func buildScale(key Key, scale ScaleType) []Note {
	tonic := key.PitchClass()
	useFlats := key.UsesFlats()

	intervals := scales[scale]
	notes := make([]Note, len(intervals))
	for i, interval := range intervals {
		name := tonic.Transpose(interval).Name()
		notes[i] = Note(Enharmonic(name, useFlats))
	}
	return notes
}

// Contains reports whether n is spelled exactly as one of notes
func Contains(notes []Note, n Note) bool {
	for _, candidate := range notes {
		if candidate == n {
			return true
		}
	}
	return false
}
