package sequencer

import (
	"time"

	"go-eartrain/music"
)

// AudioPlayer makes notes audible. Implementations must return quickly and
// tolerate rapid repeated calls.
type AudioPlayer interface {
	// EnsureReady prepares the output; safe to call many times
	EnsureReady() error
	// PlayNote sounds n at music.DefaultOctave for roughly d
	PlayNote(n music.Note, d time.Duration) error
}

// Renderer draws a list of notes on a named surface. An empty list clears
// the surface.
type Renderer interface {
	Render(notes []music.Note, target string) error
}

// Surfaces used by the session
const (
	SurfaceNotation = "notation" // generated sequence
	SurfaceUser     = "user"     // user's attempt
)
