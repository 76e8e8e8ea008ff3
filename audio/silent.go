package audio

import (
	"time"

	"go-eartrain/debug"
	"go-eartrain/music"
)

// Silent accepts every note and plays nothing (--audio none)
type Silent struct{}

func (Silent) EnsureReady() error { return nil }

func (Silent) PlayNote(n music.Note, d time.Duration) error {
	debug.Log("audio", "silent %s for %s", n, d)
	return nil
}
