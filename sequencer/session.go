package sequencer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-eartrain/debug"
	"go-eartrain/music"
)

// ErrNoteNotInScale is returned when a selected note is not one of the
// currently displayed buttons
var ErrNoteNotInScale = errors.New("note not in current scale")

// Timing used by the session around the scheduler
const (
	AutoPlayDelay   = 500 * time.Millisecond // after Generate
	PreviewDuration = 300 * time.Millisecond // when a note button is pressed

	// NoAutoPlay as Options.AutoPlayDelay turns auto-play off
	NoAutoPlay time.Duration = -1
)

// Feedback is the result line shown after a submission
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackCorrect
	FeedbackIncorrect
)

func (f Feedback) String() string {
	switch f {
	case FeedbackCorrect:
		return "Correct!"
	case FeedbackIncorrect:
		return "Try Again!"
	}
	return ""
}

// Options configures a new Session. Zero values get defaults.
type Options struct {
	Key   music.Key
	Scale music.ScaleType
	// Length 0 means DefaultLength; anything else is clamped to
	// [MinLength, MaxLength]
	Length int
	Tempo  Tempo
	Seed   int64

	Clock    Clock
	Player   AudioPlayer
	Renderer Renderer

	// AutoPlayDelay overrides the delay before auto-play. 0 means the
	// default AutoPlayDelay, NoAutoPlay (or any negative value) disables it.
	AutoPlayDelay time.Duration
}

// Session is one user's exercise state: current selection, the generated
// sequence, the attempt so far and the score. All methods are safe for use
// from the UI goroutine and clock callbacks.
type Session struct {
	id string
	mu sync.Mutex

	key    music.Key
	scale  music.ScaleType
	length int
	tempo  Tempo

	buttons  []music.Note
	sequence Sequence
	attempt  []music.Note
	revealed int  // notes of sequence shown on the notation surface
	entered  bool // a note was selected since the last Generate
	feedback Feedback
	score    Score

	audioReady    bool
	autoPlayDelay time.Duration

	clock     Clock
	player    AudioPlayer
	renderer  Renderer
	scheduler *Scheduler
	generator *Generator

	// Notify UI of updates
	updates chan struct{}
}

// Snapshot is a read-only copy of the session for rendering
type Snapshot struct {
	ID       string
	Key      music.Key
	Scale    music.ScaleType
	Length   int
	Tempo    Tempo
	Buttons  []music.Note
	Revealed []music.Note
	Attempt  []music.Note
	Score    int
	Feedback Feedback
	State    PlayState

	HasSequence bool
	CanPlay     bool
	CanSubmit   bool
	CanClear    bool
}

// NewSession creates a session with its own scheduler and generator
func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = NewRealClock()
	}
	if opts.Player == nil {
		opts.Player = nopPlayer{}
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	length := DefaultLength
	if opts.Length != 0 {
		length = ClampLength(opts.Length)
		if length != opts.Length {
			debug.Log("session", "length %d out of range, clamped to %d", opts.Length, length)
		}
	}
	if opts.Tempo == "" {
		opts.Tempo = TempoMedium
	}
	if opts.AutoPlayDelay == 0 {
		opts.AutoPlayDelay = AutoPlayDelay
	}

	s := &Session{
		id:            uuid.NewString(),
		key:           opts.Key,
		scale:         opts.Scale,
		length:        length,
		tempo:         ParseTempo(string(opts.Tempo)),
		autoPlayDelay: opts.AutoPlayDelay,
		clock:         opts.Clock,
		player:        opts.Player,
		renderer:      opts.Renderer,
		generator:     NewGenerator(opts.Seed),
		updates:       make(chan struct{}, 1),
	}
	s.scheduler = NewScheduler(opts.Clock, opts.Player)
	s.scheduler.SetOnChange(func(state PlayState) {
		debug.Log("session", "%s playback %s", s.id, state)
		s.notifyUpdate()
	})
	s.buttons = music.ScaleNotes(s.key, s.scale)
	return s
}

// ID returns the session's unique id
func (s *Session) ID() string {
	return s.id
}

// Updates signals state changes (coalesced)
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notifyUpdate() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Selection

// SetKey changes the key and regenerates the note buttons
func (s *Session) SetKey(k music.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = k
	s.buttons = music.ScaleNotes(s.key, s.scale)
}

// SetScale changes the scale and regenerates the note buttons
func (s *Session) SetScale(scale music.ScaleType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = scale
	s.buttons = music.ScaleNotes(s.key, s.scale)
}

// SetLength sets the length of the next generated sequence (clamped)
func (s *Session) SetLength(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.length = ClampLength(n)
}

// SetTempo sets the playback tempo; unknown names fall back to medium
func (s *Session) SetTempo(t Tempo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = ParseTempo(string(t))
}

// Buttons returns the notes the user can currently select
func (s *Session) Buttons() []music.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]music.Note(nil), s.buttons...)
}

// Exercise

// Generate replaces the sequence, reveals only its first note, clears the
// attempt and schedules auto-play. It returns nil, leaving nothing to play,
// when the selected scale has no notes.
func (s *Session) Generate() Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureAudioLocked()

	s.sequence = s.generator.Generate(s.key, s.scale, s.length)
	s.attempt = nil
	s.entered = false
	s.feedback = FeedbackNone
	s.revealed = 0
	s.renderLocked(nil, SurfaceUser)

	if len(s.sequence) == 0 {
		s.renderLocked(nil, SurfaceNotation)
		s.notifyUpdate()
		return nil
	}
	debug.Log("session", "%s generated key=%s scale=%s seq=%v", s.id, s.key, s.scale, s.sequence)

	if s.renderLocked(s.sequence[:1], SurfaceNotation) {
		s.revealed = 1
	}

	if s.autoPlayDelay >= 0 {
		s.clock.Schedule(s.autoPlayDelay, func() { s.Play() })
	}

	s.notifyUpdate()
	return append(Sequence(nil), s.sequence...)
}

// Play plays the current sequence. It returns false if there is nothing to
// play or a playback is already running.
func (s *Session) Play() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Play(s.sequence, s.tempo.Duration())
}

// Replay is Play, kept separate for the UI binding
func (s *Session) Replay() bool {
	return s.Play()
}

// Stop cancels a running playback
func (s *Session) Stop() bool {
	return s.scheduler.Stop()
}

// SelectNote appends n to the attempt, renders the attempt and previews the
// note. n must be one of the current buttons.
func (s *Session) SelectNote(n music.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !music.Contains(s.buttons, n) {
		return fmt.Errorf("%w: %s in %s %s", ErrNoteNotInScale, n, s.key, s.scale)
	}

	s.ensureAudioLocked()

	s.attempt = append(s.attempt, n)
	s.entered = true
	s.renderLocked(s.attempt, SurfaceUser)
	if err := s.player.PlayNote(n, PreviewDuration); err != nil {
		debug.Log("audio", "preview %s: %v", n, err)
	}

	s.notifyUpdate()
	return nil
}

// SelectPitch selects the button with pitch class pc (MIDI keyboard input)
func (s *Session) SelectPitch(pc music.PitchClass) (music.Note, error) {
	s.mu.Lock()
	var match music.Note
	for _, b := range s.buttons {
		if b.PitchClass() == pc {
			match = b
			break
		}
	}
	key, scale := s.key, s.scale
	s.mu.Unlock()

	if match == "" {
		return "", fmt.Errorf("%w: %s in %s %s", ErrNoteNotInScale, pc, key, scale)
	}
	return match, s.SelectNote(match)
}

// Submit checks the attempt, updates the score and, if correct, reveals the
// whole sequence.
func (s *Session) Submit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sequence) == 0 {
		return false
	}

	correct := Check(s.attempt, s.sequence)
	s.score.Record(correct)
	if correct {
		s.feedback = FeedbackCorrect
		if s.renderLocked(s.sequence, SurfaceNotation) {
			s.revealed = len(s.sequence)
		}
	} else {
		s.feedback = FeedbackIncorrect
	}
	debug.Log("session", "%s submit attempt=%v correct=%v score=%d", s.id, s.attempt, correct, s.score.Points())

	s.notifyUpdate()
	return correct
}

// Clear empties the attempt and the feedback line
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt = nil
	s.feedback = FeedbackNone
	s.renderLocked(nil, SurfaceUser)
	s.notifyUpdate()
}

// Score returns the running score
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score.Points()
}

// Snapshot returns a copy of the state for rendering
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.scheduler.State()
	has := len(s.sequence) > 0
	return Snapshot{
		ID:          s.id,
		Key:         s.key,
		Scale:       s.scale,
		Length:      s.length,
		Tempo:       s.tempo,
		Buttons:     append([]music.Note(nil), s.buttons...),
		Revealed:    append([]music.Note(nil), s.sequence[:s.revealed]...),
		Attempt:     append([]music.Note(nil), s.attempt...),
		Score:       s.score.Points(),
		Feedback:    s.feedback,
		State:       state,
		HasSequence: has,
		CanPlay:     has && state == Idle,
		CanSubmit:   has && s.entered,
		CanClear:    has && s.entered,
	}
}

// ensureAudioLocked readies the player once; failures are logged and the
// exercise continues silently
func (s *Session) ensureAudioLocked() {
	if s.audioReady {
		return
	}
	if err := s.player.EnsureReady(); err != nil {
		debug.Log("audio", "%s audio unavailable: %v", s.id, err)
		return
	}
	s.audioReady = true
}

// renderLocked draws notes on target; on failure the surface keeps its
// previous content and the offending notes are logged
func (s *Session) renderLocked(notes []music.Note, target string) bool {
	if err := s.renderer.Render(notes, target); err != nil {
		debug.Log("render", "%s render %s failed: %v (sequence %v)", s.id, target, err, notes)
		return false
	}
	return true
}

type nopPlayer struct{}

func (nopPlayer) EnsureReady() error                       { return nil }
func (nopPlayer) PlayNote(music.Note, time.Duration) error { return nil }

type nopRenderer struct{}

func (nopRenderer) Render([]music.Note, string) error { return nil }
