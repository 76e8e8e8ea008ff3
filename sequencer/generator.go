package sequencer

import (
	"math/rand"
	"sync"

	"go-eartrain/debug"
	"go-eartrain/music"
)

// Sequence length bounds exposed to the UI
const (
	MinLength     = 1
	MaxLength     = 16
	DefaultLength = 4
)

// Sequence is the answer key of one exercise
type Sequence []music.Note

// ClampLength forces n into [MinLength, MaxLength]
func ClampLength(n int) int {
	if n < MinLength {
		return MinLength
	}
	if n > MaxLength {
		return MaxLength
	}
	return n
}

// Generator draws random sequences from a scale
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator; equal seeds give equal sequences
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate draws length notes uniformly, with replacement, from the notes of
// scale in key. Repeats are allowed. length is clamped to the UI range. An
// unknown scale yields an empty sequence.
func (g *Generator) Generate(key music.Key, scale music.ScaleType, length int) Sequence {
	n := ClampLength(length)
	if n != length {
		debug.Log("generate", "length %d out of range, clamped to %d", length, n)
	}

	pool := music.ScaleNotes(key, scale)
	if len(pool) == 0 {
		debug.Log("generate", "no notes for %s %s, nothing generated", key, scale)
		return Sequence{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seq := make(Sequence, n)
	for i := range seq {
		seq[i] = pool[g.rng.Intn(len(pool))]
	}
	return seq
}
