package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-eartrain/debug"
	"go-eartrain/music"
)

// ErrNoOutput is returned when no output port matches
var ErrNoOutput = errors.New("no midi output port")

// PlayerConfig selects the output port and note parameters
type PlayerConfig struct {
	Port     string // substring of the port name; empty picks the first port
	Channel  uint8  // 0-15
	Velocity uint8  // 1-127
	Octave   int
}

// Player sends notes to a MIDI output: note-on now, note-off after the
// note's duration
type Player struct {
	cfg PlayerConfig

	mu       sync.Mutex
	send     func(gomidi.Message) error
	sounding map[uint8]int // key -> overlapping notes still held
	timers   map[int]func() bool
	nextID   int
	closed   bool

	open      func(port string) (func(gomidi.Message) error, error)
	afterFunc func(d time.Duration, f func()) (stop func() bool)
}

// NewPlayer creates a player; the port is opened on EnsureReady
func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.Channel > 15 {
		cfg.Channel = 15
	}
	if cfg.Velocity == 0 || cfg.Velocity > 127 {
		cfg.Velocity = 100
	}
	if cfg.Octave == 0 {
		cfg.Octave = music.DefaultOctave
	}
	return &Player{
		cfg:      cfg,
		sounding: make(map[uint8]int),
		timers:   make(map[int]func() bool),
		open:     openOutput,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

func openOutput(port string) (func(gomidi.Message) error, error) {
	ports, err := ListPorts(PortTimeout)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(port)
	for _, out := range ports.Out {
		if want == "" || strings.Contains(strings.ToLower(out.String()), want) {
			debug.Log("midi", "output: %s", out.String())
			return gomidi.SendTo(out)
		}
	}
	if port == "" {
		return nil, ErrNoOutput
	}
	return nil, fmt.Errorf("%w matching %q", ErrNoOutput, port)
}

// EnsureReady opens the output port once. A failed attempt is retried on
// the next call.
func (p *Player) EnsureReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.send != nil {
		return nil
	}
	if p.closed {
		return errors.New("midi player closed")
	}
	send, err := p.open(p.cfg.Port)
	if err != nil {
		return fmt.Errorf("midi output: %w", err)
	}
	p.send = send
	return nil
}

// PlayNote sends note-on and schedules the matching note-off after d
func (p *Player) PlayNote(n music.Note, d time.Duration) error {
	key, err := NoteNumber(n, p.cfg.Octave)
	if err != nil {
		return fmt.Errorf("%w: %q", err, string(n))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.send == nil {
		return fmt.Errorf("play %s: midi output not ready", n)
	}
	if err := p.send(gomidi.NoteOn(p.cfg.Channel, key, p.cfg.Velocity)); err != nil {
		return fmt.Errorf("note on %s: %w", n, err)
	}
	p.sounding[key]++

	id := p.nextID
	p.nextID++
	p.timers[id] = p.afterFunc(d, func() { p.release(id, key) })
	return nil
}

// release ends one hold of key; note-off goes out when the last overlapping
// hold ends
func (p *Player) release(id int, key uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.timers[id]; !ok {
		return
	}
	delete(p.timers, id)

	p.sounding[key]--
	if p.sounding[key] > 0 {
		return
	}
	delete(p.sounding, key)
	if err := p.send(gomidi.NoteOff(p.cfg.Channel, key)); err != nil {
		debug.Log("audio", "note off %d: %v", key, err)
	}
}

// Close cancels pending note-offs and silences every held key
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for id, stop := range p.timers {
		stop()
		delete(p.timers, id)
	}
	var errs []error
	for key := range p.sounding {
		if p.send == nil {
			break
		}
		if err := p.send(gomidi.NoteOff(p.cfg.Channel, key)); err != nil {
			errs = append(errs, err)
		}
		delete(p.sounding, key)
	}
	p.send = nil
	return errors.Join(errs...)
}
