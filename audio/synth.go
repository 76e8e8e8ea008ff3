// Package audio plays notes through the system audio device.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"go-eartrain/debug"
	"go-eartrain/music"
)

const (
	DefaultSampleRate = beep.SampleRate(48000)
	DefaultVolume     = 0.5
	bufferDuration    = 100 * time.Millisecond
)

// speaker.Init is process-wide
var (
	speakerOnce sync.Once
	speakerErr  error
)

// Synth is a single-voice triangle synth with an ADSR envelope
type Synth struct {
	mu       sync.Mutex
	rate     beep.SampleRate
	volume   float64
	octave   int
	envelope ADSR

	mixer *beep.Mixer
	ready bool

	// start begins playback of the mixer; replaced in tests
	start func(rate beep.SampleRate, s beep.Streamer) error
	// lock guards the mixer against the audio callback
	lock, unlock func()
}

// NewSynth creates a synth; nothing touches the audio device until EnsureReady
func NewSynth(volume float64) *Synth {
	if volume < 0 {
		volume = 0
	}
	return &Synth{
		rate:     DefaultSampleRate,
		volume:   volume,
		octave:   music.DefaultOctave,
		envelope: DefaultADSR,
		mixer:    &beep.Mixer{},
		start:    startSpeaker,
		lock:     speaker.Lock,
		unlock:   speaker.Unlock,
	}
}

func startSpeaker(rate beep.SampleRate, s beep.Streamer) error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(rate, rate.N(bufferDuration))
	})
	if speakerErr != nil {
		return speakerErr
	}
	speaker.Play(s)
	return nil
}

// EnsureReady opens the audio device once
func (s *Synth) EnsureReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if err := s.start(s.rate, s.mixer); err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	s.ready = true
	debug.Log("audio", "synth ready rate=%d", s.rate)
	return nil
}

// PlayNote sounds n at the synth's octave, held for d then released
func (s *Synth) PlayNote(n music.Note, d time.Duration) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %q", music.ErrInvalidNote, string(n))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return fmt.Errorf("play %s: audio not ready", n)
	}

	voice := s.Voice(n, d)
	s.lock()
	s.mixer.Add(voice)
	s.unlock()
	return nil
}

// Voice builds the streamer for one note without playing it
func (s *Synth) Voice(n music.Note, d time.Duration) beep.Streamer {
	osc := NewTriangle(Frequency(n.MIDI(s.octave)), s.rate)
	return newVolume(NewEnvelope(osc, d, s.envelope, s.rate), s.volume)
}

// Active returns the number of voices still sounding
func (s *Synth) Active() int {
	s.lock()
	defer s.unlock()
	return s.mixer.Len()
}
