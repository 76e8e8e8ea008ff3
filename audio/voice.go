package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// triangle is an endless triangle-wave oscillator
type triangle struct {
	freq  float64
	phase float64
	rate  beep.SampleRate
}

// NewTriangle creates a triangle oscillator at freq Hz
func NewTriangle(freq float64, rate beep.SampleRate) beep.Streamer {
	return &triangle{freq: freq, rate: rate}
}

func (o *triangle) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		// 0 -> 1 -> -1 -> 0 over one period
		val := 4*math.Abs(o.phase-math.Floor(o.phase+0.75)+0.25) - 1
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase = o.phase - math.Floor(o.phase)
	}
	return len(samples), true
}

func (o *triangle) Err() error { return nil }

// ADSR holds envelope timings; Sustain is a level in [0, 1]
type ADSR struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain float64
	Release time.Duration
}

// DefaultADSR is the single voice used for every note
var DefaultADSR = ADSR{
	Attack:  50 * time.Millisecond,
	Decay:   200 * time.Millisecond,
	Sustain: 0.8,
	Release: 500 * time.Millisecond,
}

// envelope gates a stream for a held duration and then releases it
type envelope struct {
	streamer beep.Streamer
	position int

	attack  int
	decay   int
	sustain float64
	gate    int // samples until note-off
	release int

	releaseFrom float64 // level at note-off
}

// NewEnvelope shapes s: attack, decay to sustain while held for gate, then
// release to silence. The stream ends after gate + release.
func NewEnvelope(s beep.Streamer, gate time.Duration, adsr ADSR, rate beep.SampleRate) beep.Streamer {
	e := &envelope{
		streamer: s,
		attack:   rate.N(adsr.Attack),
		decay:    rate.N(adsr.Decay),
		sustain:  adsr.Sustain,
		gate:     rate.N(gate),
		release:  rate.N(adsr.Release),
	}
	e.releaseFrom = e.heldLevel(e.gate)
	return e
}

// heldLevel is the level at pos while the key is down
func (e *envelope) heldLevel(pos int) float64 {
	if pos < e.attack {
		return float64(pos) / float64(e.attack)
	}
	pos -= e.attack
	if pos < e.decay {
		return 1 - (1-e.sustain)*float64(pos)/float64(e.decay)
	}
	return e.sustain
}

// Level returns the gain at sample pos
func (e *envelope) level(pos int) float64 {
	if pos < e.gate {
		return e.heldLevel(pos)
	}
	if e.release == 0 {
		return 0
	}
	remaining := e.gate + e.release - pos
	if remaining <= 0 {
		return 0
	}
	return e.releaseFrom * float64(remaining) / float64(e.release)
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	total := e.gate + e.release
	if e.position >= total {
		return 0, false
	}
	if left := total - e.position; left < len(samples) {
		samples = samples[:left]
	}

	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := e.level(e.position)
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales s linearly; 0 or below is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Frequency returns the equal-tempered frequency of a MIDI note (A4 = 440 Hz)
func Frequency(midiNote int) float64 {
	return 440 * math.Pow(2, float64(midiNote-69)/12)
}
