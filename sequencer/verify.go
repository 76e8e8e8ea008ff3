package sequencer

import "go-eartrain/music"

// Check reports whether attempt matches sequence exactly: same length and the
// same spelling at every position. Enharmonic equivalents do not match.
func Check(attempt, sequence []music.Note) bool {
	if len(attempt) != len(sequence) {
		return false
	}
	for i := range sequence {
		if attempt[i] != sequence[i] {
			return false
		}
	}
	return true
}
