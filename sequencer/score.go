package sequencer

// ScoreIncrement is awarded for every correct answer
const ScoreIncrement = 10

// Score only ever grows; it lives as long as the process
type Score struct {
	points int
}

// Record adds ScoreIncrement if correct and returns the new total
func (s *Score) Record(correct bool) int {
	if correct {
		s.points += ScoreIncrement
	}
	return s.points
}

// Points returns the running total
func (s *Score) Points() int {
	return s.points
}
