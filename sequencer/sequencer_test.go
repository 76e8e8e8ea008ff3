package sequencer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-eartrain/music"
)

type playedNote struct {
	at       time.Duration
	note     music.Note
	duration time.Duration
}

// recordingPlayer logs every PlayNote against a virtual clock
type recordingPlayer struct {
	mu       sync.Mutex
	clock    *ManualClock
	played   []playedNote
	readyErr error
	playErr  error
	readies  int
}

func (p *recordingPlayer) EnsureReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readies++
	return p.readyErr
}

func (p *recordingPlayer) PlayNote(n music.Note, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var at time.Duration
	if p.clock != nil {
		at = p.clock.Now()
	}
	p.played = append(p.played, playedNote{at: at, note: n, duration: d})
	return p.playErr
}

func (p *recordingPlayer) notes() []music.Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []music.Note
	for _, pn := range p.played {
		out = append(out, pn.note)
	}
	return out
}

// recordingRenderer keeps the last successful render per surface
type recordingRenderer struct {
	surfaces map[string][]music.Note
	fail     bool
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{surfaces: make(map[string][]music.Note)}
}

func (r *recordingRenderer) Render(notes []music.Note, target string) error {
	if r.fail {
		return errors.New("boom")
	}
	r.surfaces[target] = append([]music.Note(nil), notes...)
	return nil
}

// Clock

func TestManualClockFiresInOrder(t *testing.T) {
	clock := NewManualClock()
	var got []string
	clock.Schedule(20*time.Millisecond, func() { got = append(got, "b") })
	clock.Schedule(10*time.Millisecond, func() { got = append(got, "a") })
	clock.Schedule(20*time.Millisecond, func() { got = append(got, "c") })

	clock.Advance(15 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 15*time.Millisecond, clock.Now())

	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, clock.Pending())
}

func TestManualClockNestedSchedule(t *testing.T) {
	clock := NewManualClock()
	var at []time.Duration
	clock.Schedule(10*time.Millisecond, func() {
		at = append(at, clock.Now())
		clock.Schedule(10*time.Millisecond, func() { at = append(at, clock.Now()) })
	})
	clock.Advance(time.Second)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, at)
}

func TestRealClockRunsAction(t *testing.T) {
	clock := NewRealClock()
	done := make(chan struct{})
	clock.Schedule(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("action never ran")
	}
}

// Tempo

func TestTempo(t *testing.T) {
	assert.Equal(t, 1000*time.Millisecond, TempoSlow.Duration())
	assert.Equal(t, 600*time.Millisecond, TempoMedium.Duration())
	assert.Equal(t, 350*time.Millisecond, TempoFast.Duration())
	assert.Equal(t, 600*time.Millisecond, Tempo("presto").Duration())
	assert.Equal(t, TempoMedium, ParseTempo("presto"))
	assert.Equal(t, TempoFast, ParseTempo(" FAST "))
	assert.Equal(t, TempoMedium, TempoSlow.Next())
	assert.Equal(t, TempoSlow, TempoFast.Next())
}

// Generator

func TestGenerateLengthAndMembership(t *testing.T) {
	g := NewGenerator(1)
	for _, k := range music.Keys() {
		for _, s := range music.ScaleTypes() {
			pool := music.ScaleNotes(k, s)
			for n := MinLength; n <= MaxLength; n++ {
				seq := g.Generate(k, s, n)
				require.Len(t, seq, n)
				for _, note := range seq {
					assert.True(t, music.Contains(pool, note), "%s not in %s %s", note, k, s)
				}
			}
		}
	}
}

func TestGenerateClampsLength(t *testing.T) {
	g := NewGenerator(1)
	assert.Len(t, g.Generate(0, music.ScaleMajor, 0), MinLength)
	assert.Len(t, g.Generate(0, music.ScaleMajor, -3), MinLength)
	assert.Len(t, g.Generate(0, music.ScaleMajor, 99), MaxLength)
}

func TestGenerateUnknownScale(t *testing.T) {
	g := NewGenerator(1)
	assert.NotPanics(t, func() {
		assert.Empty(t, g.Generate(0, music.ScaleType(42), 4))
	})
}

func TestGenerateIsSeeded(t *testing.T) {
	a := NewGenerator(42).Generate(0, music.ScaleChromatic, 16)
	b := NewGenerator(42).Generate(0, music.ScaleChromatic, 16)
	assert.Equal(t, a, b)
}

func TestGenerateAllowsRepeats(t *testing.T) {
	g := NewGenerator(7)
	seq := g.Generate(0, music.ScalePentatonic, 16)
	seen := make(map[music.Note]bool)
	for _, n := range seq {
		seen[n] = true
	}
	// 16 draws from 5 notes must repeat
	assert.Less(t, len(seen), len(seq))
}

// Verifier and score

func TestCheck(t *testing.T) {
	ceg := []music.Note{"C", "E", "G"}
	assert.True(t, Check([]music.Note{"C", "E", "G"}, ceg))
	assert.False(t, Check([]music.Note{"C", "E", "A"}, ceg))
	assert.False(t, Check([]music.Note{"C", "E"}, ceg))
	assert.False(t, Check([]music.Note{"C", "E", "G", "C"}, ceg))
	assert.False(t, Check([]music.Note{"C#"}, []music.Note{"Db"}))
	assert.True(t, Check(nil, nil))
}

func TestScore(t *testing.T) {
	var s Score
	assert.Equal(t, 0, s.Points())
	assert.Equal(t, 10, s.Record(true))
	assert.Equal(t, 10, s.Record(false))
	assert.Equal(t, 20, s.Record(true))
}

// Scheduler

func TestSchedulerTiming(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	sched := NewScheduler(clock, player)

	var states []PlayState
	sched.SetOnChange(func(s PlayState) { states = append(states, s) })

	seq := []music.Note{"E", "C", "G"}
	require.True(t, sched.Play(seq, 600*time.Millisecond))
	assert.Equal(t, Playing, sched.State())

	clock.Advance(1200 * time.Millisecond)
	assert.Equal(t, []playedNote{
		{at: 0, note: "E", duration: 480 * time.Millisecond},
		{at: 600 * time.Millisecond, note: "C", duration: 480 * time.Millisecond},
		{at: 1200 * time.Millisecond, note: "G", duration: 480 * time.Millisecond},
	}, player.played)

	// one trailing tempo after the last onset
	clock.Advance(599 * time.Millisecond)
	assert.Equal(t, Playing, sched.State())
	clock.Advance(time.Millisecond)
	assert.Equal(t, Idle, sched.State())

	assert.Equal(t, []PlayState{Playing, Idle}, states)
}

func TestSchedulerDropsWhilePlaying(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	sched := NewScheduler(clock, player)

	require.True(t, sched.Play([]music.Note{"C", "D"}, 350*time.Millisecond))
	assert.False(t, sched.Play([]music.Note{"A", "A", "A"}, 350*time.Millisecond))
	assert.Equal(t, Playing, sched.State())

	clock.Advance(10 * time.Second)
	assert.Equal(t, []music.Note{"C", "D"}, player.notes())
	assert.Equal(t, Idle, sched.State())

	// idle again, so the next request plays
	assert.True(t, sched.Play([]music.Note{"A"}, 350*time.Millisecond))
}

func TestSchedulerEmptySequence(t *testing.T) {
	sched := NewScheduler(NewManualClock(), &recordingPlayer{})
	assert.False(t, sched.Play(nil, time.Second))
	assert.Equal(t, Idle, sched.State())
}

func TestSchedulerAudioErrorsDoNotStopPlayback(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock, playErr: errors.New("device gone")}
	sched := NewScheduler(clock, player)

	sched.Play([]music.Note{"C", "D", "E"}, 100*time.Millisecond)
	clock.Advance(time.Second)
	assert.Len(t, player.played, 3)
	assert.Equal(t, Idle, sched.State())
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	sched := NewScheduler(clock, player)

	sched.Play([]music.Note{"C", "D", "E", "F"}, 100*time.Millisecond)
	clock.Advance(150 * time.Millisecond)
	require.True(t, sched.Stop())
	assert.Equal(t, Idle, sched.State())
	assert.False(t, sched.Stop())

	// a new run is not disturbed by the stale callbacks
	require.True(t, sched.Play([]music.Note{"B"}, 100*time.Millisecond))
	clock.Advance(time.Second)

	assert.Equal(t, []music.Note{"C", "D", "B"}, player.notes())
	assert.Equal(t, Idle, sched.State())
}

func TestSchedulerStopRacingPlay(t *testing.T) {
	for i := 0; i < 200; i++ {
		clock := NewManualClock()
		player := &recordingPlayer{}
		sched := NewScheduler(clock, player)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sched.Play([]music.Note{"C", "D"}, 100*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			sched.Stop()
		}()
		wg.Wait()

		idle := sched.State() == Idle
		clock.Advance(time.Second)
		if idle {
			require.Empty(t, player.notes(), "iteration %d: notes sounded while idle", i)
		} else {
			require.Equal(t, []music.Note{"C", "D"}, player.notes(), "iteration %d", i)
		}
		require.Equal(t, Idle, sched.State())
	}
}

// Session

func newTestSession(t *testing.T) (*Session, *ManualClock, *recordingPlayer, *recordingRenderer) {
	t.Helper()
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	renderer := newRecordingRenderer()
	s := NewSession(Options{
		Key:      0,
		Scale:    music.ScaleMajor,
		Length:   3,
		Tempo:    TempoFast,
		Seed:     3,
		Clock:    clock,
		Player:   player,
		Renderer: renderer,
	})
	return s, clock, player, renderer
}

func TestSessionDefaults(t *testing.T) {
	s := NewSession(Options{Clock: NewManualClock()})
	snap := s.Snapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, DefaultLength, snap.Length)
	assert.Equal(t, TempoMedium, snap.Tempo)
	assert.Equal(t, []music.Note{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}, snap.Buttons)
	assert.False(t, snap.HasSequence)
	assert.False(t, snap.CanPlay)
	assert.False(t, s.Play())
	assert.False(t, s.Submit())
}

func TestSessionButtonsFollowSelection(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	assert.Equal(t, []music.Note{"C", "D", "E", "F", "G", "A", "B"}, s.Buttons())

	s.SetKey(5)
	assert.Equal(t, []music.Note{"F", "G", "A", "Bb", "C", "D", "E"}, s.Buttons())

	s.SetScale(music.ScalePentatonic)
	assert.Equal(t, []music.Note{"F", "G", "A", "C", "D"}, s.Buttons())
}

func TestSessionGenerateRevealsFirstNoteAndAutoPlays(t *testing.T) {
	s, clock, player, renderer := newTestSession(t)

	seq := s.Generate()
	require.Len(t, seq, 3)
	assert.Equal(t, []music.Note{seq[0]}, renderer.surfaces[SurfaceNotation])
	assert.Empty(t, renderer.surfaces[SurfaceUser])

	snap := s.Snapshot()
	assert.Equal(t, []music.Note{seq[0]}, snap.Revealed)
	assert.True(t, snap.CanPlay)
	assert.False(t, snap.CanSubmit)
	assert.False(t, snap.CanClear)

	clock.Advance(AutoPlayDelay - time.Millisecond)
	assert.Empty(t, player.played)

	clock.Advance(time.Millisecond)
	assert.Equal(t, Playing, s.Snapshot().State)
	assert.False(t, s.Snapshot().CanPlay)
	assert.False(t, s.Replay())

	clock.Advance(3 * TempoFast.Duration())
	assert.Equal(t, []music.Note(seq), player.notes())
	assert.Equal(t, Idle, s.Snapshot().State)
}

func TestSessionCorrectSubmission(t *testing.T) {
	s, clock, _, renderer := newTestSession(t)
	seq := s.Generate()
	clock.Advance(10 * time.Second)

	for _, n := range seq {
		require.NoError(t, s.SelectNote(n))
	}
	assert.Equal(t, []music.Note(seq), renderer.surfaces[SurfaceUser])
	assert.True(t, s.Snapshot().CanSubmit)

	assert.True(t, s.Submit())
	snap := s.Snapshot()
	assert.Equal(t, 10, snap.Score)
	assert.Equal(t, FeedbackCorrect, snap.Feedback)
	assert.Equal(t, "Correct!", snap.Feedback.String())
	assert.Equal(t, []music.Note(seq), snap.Revealed)
	assert.Equal(t, []music.Note(seq), renderer.surfaces[SurfaceNotation])
}

func TestSessionWrongSubmission(t *testing.T) {
	s, clock, _, renderer := newTestSession(t)
	seq := s.Generate()
	clock.Advance(10 * time.Second)

	require.NoError(t, s.SelectNote(seq[0]))
	assert.False(t, s.Submit())

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, "Try Again!", snap.Feedback.String())
	assert.Equal(t, []music.Note{seq[0]}, renderer.surfaces[SurfaceNotation])

	s.Clear()
	snap = s.Snapshot()
	assert.Empty(t, snap.Attempt)
	assert.Equal(t, FeedbackNone, snap.Feedback)
	assert.Empty(t, renderer.surfaces[SurfaceUser])
}

func TestSessionSelectNoteOutsideScale(t *testing.T) {
	s, _, player, _ := newTestSession(t)
	err := s.SelectNote("C#")
	assert.ErrorIs(t, err, ErrNoteNotInScale)
	assert.Empty(t, s.Snapshot().Attempt)
	assert.Empty(t, player.played)
}

func TestSessionSelectNotePreviews(t *testing.T) {
	s, _, player, _ := newTestSession(t)
	require.NoError(t, s.SelectNote("E"))
	require.Len(t, player.played, 1)
	assert.Equal(t, PreviewDuration, player.played[0].duration)
	assert.Equal(t, 1, player.readies)
}

func TestSessionSelectPitch(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.SetKey(5) // F major spells Bb

	n, err := s.SelectPitch(10)
	require.NoError(t, err)
	assert.Equal(t, music.Note("Bb"), n)

	_, err = s.SelectPitch(11)
	assert.ErrorIs(t, err, ErrNoteNotInScale)
	assert.Equal(t, []music.Note{"Bb"}, s.Snapshot().Attempt)
}

func TestSessionAudioFailureIsNotFatal(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock, readyErr: errors.New("no device")}
	s := NewSession(Options{Clock: clock, Player: player, Length: 2})

	seq := s.Generate()
	assert.Len(t, seq, 2)
	s.Generate()
	assert.Equal(t, 2, player.readies, "retried because it never succeeded")
}

func TestSessionRenderFailureKeepsState(t *testing.T) {
	s, _, _, renderer := newTestSession(t)
	renderer.fail = true
	s.Generate()
	assert.Empty(t, s.Snapshot().Revealed)
	assert.True(t, s.Snapshot().HasSequence)
}

func TestSessionGenerateResetsAttempt(t *testing.T) {
	s, clock, _, _ := newTestSession(t)
	s.Generate()
	require.NoError(t, s.SelectNote("C"))
	clock.Advance(10 * time.Second)

	s.Generate()
	snap := s.Snapshot()
	assert.Empty(t, snap.Attempt)
	assert.False(t, snap.CanSubmit)
}

func TestSessionAutoPlayDisabled(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	s := NewSession(Options{Clock: clock, Player: player, AutoPlayDelay: NoAutoPlay})
	s.Generate()
	clock.Advance(10 * time.Second)
	assert.Empty(t, player.played)
	assert.True(t, s.Play())
}

func TestSessionSettersClamp(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.SetLength(100)
	s.SetTempo("warp")
	snap := s.Snapshot()
	assert.Equal(t, MaxLength, snap.Length)
	assert.Equal(t, TempoMedium, snap.Tempo)
}

func TestSessionUpdatesSignal(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.Generate()
	select {
	case <-s.Updates():
	default:
		t.Fatal("expected an update after Generate")
	}
}

func TestSessionLengthOption(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"unset", 0, DefaultLength},
		{"negative", -2, MinLength},
		{"minimum", 1, 1},
		{"too long", 40, MaxLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(Options{Clock: NewManualClock(), Length: tt.length, AutoPlayDelay: NoAutoPlay})
			assert.Equal(t, tt.want, s.Snapshot().Length)
			assert.Len(t, s.Generate(), tt.want)
		})
	}

	s := NewSession(Options{Clock: NewManualClock(), Length: 5})
	s.SetLength(0)
	assert.Len(t, s.Generate(), MinLength)
}

func TestSessionZeroAutoPlayDelayUsesDefault(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	s := NewSession(Options{Clock: clock, Player: player, Length: 1})
	s.Generate()

	clock.Advance(AutoPlayDelay - time.Millisecond)
	assert.Empty(t, player.played)
	clock.Advance(time.Millisecond)
	assert.Len(t, player.played, 1)
}

func TestSessionUnknownScaleGeneratesNothing(t *testing.T) {
	clock := NewManualClock()
	player := &recordingPlayer{clock: clock}
	renderer := newRecordingRenderer()
	s := NewSession(Options{Clock: clock, Player: player, Renderer: renderer, Scale: music.ScaleType(42)})

	assert.Empty(t, s.Buttons())
	var seq Sequence
	require.NotPanics(t, func() { seq = s.Generate() })
	assert.Empty(t, seq)

	snap := s.Snapshot()
	assert.False(t, snap.HasSequence)
	assert.Empty(t, snap.Revealed)
	assert.False(t, s.Play())
	clock.Advance(time.Second)
	assert.Empty(t, player.played)
	assert.Empty(t, renderer.surfaces[SurfaceNotation])
}
