package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ButtonKeys are the keyboard shortcuts for note buttons, left to right.
// Chromatic is the widest scale at 12 notes.
const ButtonKeys = "1234567890-="

// KeyForButton returns the shortcut for button i, or "" past the last key
func KeyForButton(i int) string {
	if i < 0 || i >= len(ButtonKeys) {
		return ""
	}
	return ButtonKeys[i : i+1]
}

// ButtonForKey returns the button index for a shortcut, or -1
func ButtonForKey(key string) int {
	if len(key) != 1 {
		return -1
	}
	return strings.Index(ButtonKeys, key)
}

// ButtonStyles for the note buttons
type ButtonStyles struct {
	Normal lipgloss.Style
	Key    lipgloss.Style
}

// ButtonRow renders a row of labelled buttons and remembers where each one
// landed so mouse clicks can be mapped back
type ButtonRow struct {
	Styles ButtonStyles
	spans  [][2]int // [start, end) columns per button
}

// NewButtonRow creates an empty row
func NewButtonRow(styles ButtonStyles) *ButtonRow {
	return &ButtonRow{Styles: styles}
}

// Render draws labels as "[1 C ] [2 D ] ..." on one line
func (r *ButtonRow) Render(labels []string) string {
	r.spans = r.spans[:0]
	var out strings.Builder
	col := 0
	for i, label := range labels {
		if i > 0 {
			out.WriteString(" ")
			col++
		}
		text := "[" + r.Styles.Key.Render(KeyForButton(i)) + " " + r.Styles.Normal.Render(label) + "]"
		w := lipgloss.Width(text)
		r.spans = append(r.spans, [2]int{col, col + w})
		out.WriteString(text)
		col += w
	}
	return out.String()
}

// HitTest returns the button under column x from the last Render, or -1
func (r *ButtonRow) HitTest(x int) int {
	for i, span := range r.spans {
		if x >= span[0] && x < span[1] {
			return i
		}
	}
	return -1
}
