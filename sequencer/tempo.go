package sequencer

import (
	"strings"
	"time"
)

// Tempo names an inter-onset interval
type Tempo string

const (
	TempoSlow   Tempo = "slow"
	TempoMedium Tempo = "medium"
	TempoFast   Tempo = "fast"
)

var tempos = map[Tempo]time.Duration{
	TempoSlow:   1000 * time.Millisecond,
	TempoMedium: 600 * time.Millisecond,
	TempoFast:   350 * time.Millisecond,
}

var tempoOrder = []Tempo{TempoSlow, TempoMedium, TempoFast}

// ParseTempo resolves a tempo name; anything unrecognised is medium
func ParseTempo(name string) Tempo {
	t := Tempo(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := tempos[t]; ok {
		return t
	}
	return TempoMedium
}

// Duration returns the interval between note onsets
func (t Tempo) Duration() time.Duration {
	if d, ok := tempos[t]; ok {
		return d
	}
	return tempos[TempoMedium]
}

// Next cycles slow -> medium -> fast -> slow
func (t Tempo) Next() Tempo {
	cur := ParseTempo(string(t))
	for i, candidate := range tempoOrder {
		if candidate == cur {
			return tempoOrder[(i+1)%len(tempoOrder)]
		}
	}
	return TempoMedium
}
