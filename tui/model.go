package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-eartrain/debug"
	"go-eartrain/midi"
	"go-eartrain/sequencer"
	"go-eartrain/theme"
	"go-eartrain/widgets"
)

// Surfaces gives the rendered staff text for a target
type Surfaces interface {
	View(target string) string
}

// layoutBounds holds cached layout info
type layoutBounds struct {
	buttonsTop int
}

type Model struct {
	Session   *sequencer.Session
	Staff     Surfaces
	DeviceMgr *midi.DeviceManager // nil without keyboard input
	Theme     *theme.Theme

	buttons  *widgets.ButtonRow
	bounds   *layoutBounds
	quitting bool
	showHelp bool
	status   string   // last input error or device change
	keyboard []string // connected keyboard ids
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

type NoteMsg midi.NoteEvent

func NewModel(session *sequencer.Session, staff Surfaces, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Session:   session,
		Staff:     staff,
		DeviceMgr: deviceMgr,
		Theme:     th,
		buttons: widgets.NewButtonRow(widgets.ButtonStyles{
			Normal: lipgloss.NewStyle().Foreground(th.FG()).Bold(true),
			Key:    lipgloss.NewStyle().Foreground(th.Muted()),
		}),
		bounds: &layoutBounds{},
	}
}

func ListenForUpdates(session *sequencer.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.Updates()
		return UpdateMsg{}
	}
}

// ListenForDevices returns nil once the manager has shut down
func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForNotes(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		note, ok := <-deviceMgr.Notes()
		if !ok {
			return nil
		}
		return NoteMsg(note)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Session)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr), ListenForNotes(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if msg.Y == m.bounds.buttonsTop {
				if i := m.buttons.HitTest(msg.X); i >= 0 {
					m.selectButton(i)
				}
			}
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Session)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.keyboard = append(m.keyboard, event.ID)
			m.status = "keyboard connected: " + event.ID
		case midi.DeviceDisconnected:
			m.keyboard = remove(m.keyboard, event.ID)
			m.status = "keyboard disconnected: " + event.ID
		}
		return m, ListenForDevices(m.DeviceMgr)

	case NoteMsg:
		note, err := m.Session.SelectPitch(midi.NoteEvent(msg).PitchClass())
		if err != nil {
			m.status = fmt.Sprintf("%s is not in this scale", midi.NoteEvent(msg).PitchClass())
		} else {
			m.status = ""
			debug.Log("input", "keyboard %s -> %s", msg.Source, note)
		}
		return m, ListenForNotes(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	snap := m.Session.Snapshot()

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Session.Stop()
		return m, tea.Quit

	case "k":
		m.Session.SetKey(snap.Key.Next())
	case "K":
		m.Session.SetKey(snap.Key.Prev())
	case "s":
		m.Session.SetScale(snap.Scale.Next())
	case "]":
		m.Session.SetLength(snap.Length + 1)
	case "[":
		m.Session.SetLength(snap.Length - 1)
	case "t":
		m.Session.SetTempo(snap.Tempo.Next())

	case "g":
		m.status = ""
		m.Session.Generate()
	case "p", " ":
		if snap.CanPlay {
			m.Session.Play()
		}
	case "r":
		if snap.CanPlay {
			m.Session.Replay()
		}
	case "x":
		m.Session.Stop()
	case "?":
		m.showHelp = !m.showHelp

	case "enter":
		if snap.CanSubmit {
			m.Session.Submit()
		}
	case "backspace", "c":
		if snap.CanClear {
			m.Session.Clear()
		}

	default:
		if i := widgets.ButtonForKey(key); i >= 0 {
			m.selectButton(i)
		}
	}
	return m, nil
}

func (m *Model) selectButton(i int) {
	buttons := m.Session.Buttons()
	if i >= len(buttons) {
		return
	}
	if err := m.Session.SelectNote(buttons[i]); err != nil {
		m.status = err.Error()
		if !errors.Is(err, sequencer.ErrNoteNotInScale) {
			debug.Log("input", "select %s: %v", buttons[i], err)
		}
		return
	}
	m.status = ""
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Session.Snapshot()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	playStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())

	playState := string(m.Theme.Symbols.Idle) + " idle"
	if snap.State == sequencer.Playing {
		playState = playStyle.Render(string(m.Theme.Symbols.Playing) + " playing")
	}

	header := headerStyle.Render("go-eartrain") + "  " + fmt.Sprintf(
		"key:%s  scale:%s  length:%d  tempo:%s  score:%d  %s",
		snap.Key.DisplayName(), snap.Scale, snap.Length, snap.Tempo, snap.Score, playState)
	if len(m.keyboard) > 0 {
		header += dimStyle.Render("  kbd:" + strings.Join(m.keyboard, ","))
	}

	var out strings.Builder
	line := 0
	write := func(s string) {
		out.WriteString(s)
		out.WriteString("\n")
		line += lipgloss.Height(s)
	}

	write("")
	write(header)
	write("")

	write(labelStyle.Render("Sequence"))
	if notation := m.Staff.View(sequencer.SurfaceNotation); notation != "" {
		write(notation)
	} else {
		write(dimStyle.Render("  press g to generate"))
	}
	write("")

	write(labelStyle.Render("Your answer") + "  " + m.attemptLine(snap))
	if user := m.Staff.View(sequencer.SurfaceUser); user != "" {
		write(user)
	}
	write("")

	labels := make([]string, len(snap.Buttons))
	for i, n := range snap.Buttons {
		labels[i] = string(n)
	}
	m.bounds.buttonsTop = line
	write(m.buttons.Render(labels))
	write("")

	if fb := m.feedbackLine(snap.Feedback); fb != "" {
		write(fb)
	}
	if m.status != "" {
		write(dimStyle.Render(m.status))
	}

	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(helpSections)))
		return out.String()
	}
	out.WriteString(dimStyle.Render(widgets.RenderKeyLine(helpKeys(snap)) + "  ?:help"))
	return out.String()
}

func (m Model) attemptLine(snap sequencer.Snapshot) string {
	if !snap.HasSequence {
		return ""
	}
	slot := string(m.Theme.Symbols.Slot)
	parts := make([]string, 0, len(snap.Attempt))
	for _, n := range snap.Attempt {
		parts = append(parts, string(n))
	}
	// show how many notes are expected
	for i := len(parts); i < snap.Length; i++ {
		parts = append(parts, slot)
	}
	return strings.Join(parts, " ")
}

func (m Model) feedbackLine(fb sequencer.Feedback) string {
	switch fb {
	case sequencer.FeedbackCorrect:
		return lipgloss.NewStyle().Foreground(m.Theme.Success()).Bold(true).
			Render(string(m.Theme.Symbols.Correct) + " " + fb.String())
	case sequencer.FeedbackIncorrect:
		return lipgloss.NewStyle().Foreground(m.Theme.Warning()).Bold(true).
			Render(string(m.Theme.Symbols.Wrong) + " " + fb.String())
	}
	return ""
}

var helpSections = []widgets.KeySection{
	{Title: "Exercise", Keys: []widgets.KeyBinding{
		{Key: "k / K", Desc: "next / previous key"},
		{Key: "s", Desc: "next scale"},
		{Key: "[ / ]", Desc: "shorter / longer sequence"},
		{Key: "t", Desc: "next tempo"},
		{Key: "g", Desc: "generate and play a new sequence"},
		{Key: "p, r, space", Desc: "play again"},
		{Key: "x", Desc: "stop playback"},
	}},
	{Title: "Answer", Keys: []widgets.KeyBinding{
		{Key: "1 .. =", Desc: "pick a note (or click it, or play it on a MIDI keyboard)"},
		{Key: "enter", Desc: "submit"},
		{Key: "c, backspace", Desc: "clear"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

// helpKeys lists only the actions available right now
func helpKeys(snap sequencer.Snapshot) []widgets.KeyBinding {
	keys := []widgets.KeyBinding{
		{Key: "k/K", Desc: "key"},
		{Key: "s", Desc: "scale"},
		{Key: "[/]", Desc: "length"},
		{Key: "t", Desc: "tempo"},
		{Key: "g", Desc: "generate"},
	}
	if snap.CanPlay {
		keys = append(keys, widgets.KeyBinding{Key: "p/r", Desc: "play"})
	}
	if snap.State == sequencer.Playing {
		keys = append(keys, widgets.KeyBinding{Key: "x", Desc: "stop"})
	}
	if n := len(snap.Buttons); n > 0 {
		keys = append(keys, widgets.KeyBinding{Key: "1-" + widgets.KeyForButton(n-1), Desc: "note"})
	}
	if snap.CanSubmit {
		keys = append(keys, widgets.KeyBinding{Key: "enter", Desc: "submit"})
	}
	if snap.CanClear {
		keys = append(keys, widgets.KeyBinding{Key: "c", Desc: "clear"})
	}
	return append(keys, widgets.KeyBinding{Key: "q", Desc: "quit"})
}

func remove(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
