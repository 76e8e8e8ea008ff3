// Package notation draws note lists on a text treble staff.
package notation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"go-eartrain/music"
	"go-eartrain/theme"
)

// ErrInvalidNote is returned for notes whose letter is not A-G
var ErrInvalidNote = errors.New("cannot render note")

// Staff positions are diatonic steps: octave*7 + letter index (C=0 .. B=6)
var letterSteps = map[byte]int{'C': 0, 'D': 1, 'E': 2, 'F': 3, 'G': 4, 'A': 5, 'B': 6}

const (
	bottomLine = 4*7 + 2 // E4
	topLine    = 5*7 + 3 // F5
	clefLine   = 4*7 + 4 // G4

	lineChar  = "─"
	spaceChar = " "
	noteHead  = "●"
	clefGlyph = "𝄞"
	colWidth  = 4 // accidental(2) + head + gap
)

// accidental marks; anything else is drawn without a mark
var accidentalMarks = map[string]string{
	music.Sharp:       "♯",
	music.Flat:        "♭",
	music.DoubleSharp: "𝄪",
	music.DoubleFlat:  "♭♭",
}

// Styles for the parts of the staff
type Styles struct {
	Line       lipgloss.Style
	Head       lipgloss.Style
	Accidental lipgloss.Style
	Clef       lipgloss.Style
}

// PlainStyles renders without colour
func PlainStyles() Styles {
	return Styles{
		Line:       lipgloss.NewStyle(),
		Head:       lipgloss.NewStyle(),
		Accidental: lipgloss.NewStyle(),
		Clef:       lipgloss.NewStyle(),
	}
}

// ThemeStyles colours the staff from a palette
func ThemeStyles(th *theme.Theme) Styles {
	return Styles{
		Line:       lipgloss.NewStyle().Foreground(th.Muted()),
		Head:       lipgloss.NewStyle().Foreground(th.FG()).Bold(true),
		Accidental: lipgloss.NewStyle().Foreground(th.Accent()),
		Clef:       lipgloss.NewStyle().Foreground(th.Accent()),
	}
}

// Staff renders notes at a fixed octave onto named surfaces
type Staff struct {
	styles Styles
	octave int

	mu       sync.RWMutex
	surfaces map[string]string
}

// NewStaff creates a renderer drawing at music.DefaultOctave
func NewStaff(styles Styles) *Staff {
	return &Staff{
		styles:   styles,
		octave:   music.DefaultOctave,
		surfaces: make(map[string]string),
	}
}

// Render draws notes on target. An empty list clears the surface. If any note
// cannot be drawn the surface keeps its previous content.
func (s *Staff) Render(notes []music.Note, target string) error {
	if len(notes) == 0 {
		s.mu.Lock()
		s.surfaces[target] = ""
		s.mu.Unlock()
		return nil
	}

	text, err := s.Draw(notes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.surfaces[target] = text
	s.mu.Unlock()
	return nil
}

// View returns the current content of target ("" if never drawn)
func (s *Staff) View(target string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surfaces[target]
}

// Draw returns notes on a treble staff from C4 (ledger line) up to F5
func (s *Staff) Draw(notes []music.Note) (string, error) {
	positions := make([]int, len(notes))
	lowest := bottomLine
	for i, n := range notes {
		step, ok := letterSteps[n.Letter()]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidNote, string(n))
		}
		positions[i] = s.octave*7 + step
		if positions[i] < lowest {
			lowest = positions[i]
		}
	}

	top := topLine
	for _, p := range positions {
		if p > top {
			top = p
		}
	}

	var rows []string
	for pos := top; pos >= lowest; pos-- {
		rows = append(rows, s.drawRow(pos, notes, positions))
	}
	return strings.Join(rows, "\n"), nil
}

func isStaffLine(pos int) bool {
	return pos >= bottomLine && pos <= topLine && (pos-bottomLine)%2 == 0
}

// isLedgerLine covers the lines below and above the staff
func isLedgerLine(pos int) bool {
	return (pos < bottomLine || pos > topLine) && (pos-bottomLine)%2 == 0
}

func (s *Staff) drawRow(pos int, notes []music.Note, positions []int) string {
	staffLine := isStaffLine(pos)

	var b strings.Builder
	switch {
	case pos == clefLine:
		b.WriteString(s.styles.Clef.Render(clefGlyph))
		b.WriteString(s.styles.Line.Render(lineChar))
	case staffLine:
		b.WriteString(s.styles.Line.Render(strings.Repeat(lineChar, 2)))
	default:
		b.WriteString(strings.Repeat(spaceChar, 2))
	}

	for i, n := range notes {
		bg := spaceChar
		if staffLine || (isLedgerLine(pos) && positions[i] == pos) {
			bg = lineChar
		}
		if positions[i] != pos {
			if bg == lineChar {
				b.WriteString(s.styles.Line.Render(strings.Repeat(lineChar, colWidth)))
			} else {
				b.WriteString(strings.Repeat(spaceChar, colWidth))
			}
			continue
		}

		mark := accidentalMarks[n.Accidental()]
		pad := 2 - utf8.RuneCountInString(mark)
		if pad > 0 {
			b.WriteString(s.pad(bg, pad))
		}
		if mark != "" {
			b.WriteString(s.styles.Accidental.Render(mark))
		}
		b.WriteString(s.styles.Head.Render(noteHead))
		b.WriteString(s.pad(bg, 1))
	}
	return b.String()
}

func (s *Staff) pad(bg string, n int) string {
	if bg == lineChar {
		return s.styles.Line.Render(strings.Repeat(lineChar, n))
	}
	return strings.Repeat(spaceChar, n)
}
