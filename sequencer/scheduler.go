package sequencer

import (
	"sync"
	"sync/atomic"
	"time"

	"go-eartrain/debug"
	"go-eartrain/music"
)

// PlayState is the scheduler's Idle/Playing flag
type PlayState int

const (
	Idle PlayState = iota
	Playing
)

func (s PlayState) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Scheduler plays sequences with fixed timing. At most one playback is in
// flight; requests made while playing are dropped, not queued. The state
// flag and the run id always change together, so a note only sounds while
// its run is the one reported as Playing.
type Scheduler struct {
	clock  Clock
	player AudioPlayer

	// stateMu makes the Idle/Playing flip and the run bump one step
	stateMu sync.Mutex
	playing atomic.Bool
	run     atomic.Uint64 // bumped by every Play and Stop

	hookMu   sync.RWMutex
	onChange func(PlayState)
}

// NewScheduler creates an idle scheduler
func NewScheduler(clock Clock, player AudioPlayer) *Scheduler {
	return &Scheduler{clock: clock, player: player}
}

// SetOnChange registers a callback for Idle/Playing transitions
func (s *Scheduler) SetOnChange(fn func(PlayState)) {
	s.hookMu.Lock()
	s.onChange = fn
	s.hookMu.Unlock()
}

func (s *Scheduler) notify(state PlayState) {
	s.hookMu.RLock()
	fn := s.onChange
	s.hookMu.RUnlock()
	if fn != nil {
		fn(state)
	}
}

// State returns Idle or Playing
func (s *Scheduler) State() PlayState {
	if s.playing.Load() {
		return Playing
	}
	return Idle
}

// Play schedules note i at i*tempo, sounding for 80% of tempo, and returns
// to Idle one tempo after the last note. It returns false without side
// effects when seq is empty or a playback is already running.
func (s *Scheduler) Play(seq []music.Note, tempo time.Duration) bool {
	if len(seq) == 0 {
		return false
	}
	if tempo <= 0 {
		tempo = TempoMedium.Duration()
	}
	s.stateMu.Lock()
	if s.playing.Load() {
		s.stateMu.Unlock()
		debug.Log("play", "already playing, request dropped")
		return false
	}
	run := s.run.Add(1)
	s.playing.Store(true)
	s.stateMu.Unlock()

	notes := append([]music.Note(nil), seq...)
	gate := tempo * 80 / 100
	last := len(notes) - 1

	debug.Log("play", "run=%d notes=%v tempo=%s", run, notes, tempo)
	s.notify(Playing)

	for i, note := range notes {
		s.clock.Schedule(time.Duration(i)*tempo, func() {
			if s.run.Load() != run {
				return // stopped
			}
			if err := s.player.PlayNote(note, gate); err != nil {
				debug.Log("audio", "play %s: %v", note, err)
			}
			if i == last {
				s.clock.Schedule(tempo, func() { s.finish(run) })
			}
		})
	}
	return true
}

func (s *Scheduler) finish(run uint64) {
	s.stateMu.Lock()
	if s.run.Load() != run || !s.playing.Load() {
		s.stateMu.Unlock()
		return
	}
	s.playing.Store(false)
	s.stateMu.Unlock()

	debug.Log("play", "run=%d done", run)
	s.notify(Idle)
}

// Stop cancels the current run: notes not yet sounded are skipped and the
// scheduler is Idle immediately. Playback otherwise always runs to completion.
func (s *Scheduler) Stop() bool {
	s.stateMu.Lock()
	if !s.playing.Load() {
		s.stateMu.Unlock()
		return false
	}
	s.run.Add(1)
	s.playing.Store(false)
	s.stateMu.Unlock()

	debug.Log("play", "stopped")
	s.notify(Idle)
	return true
}
