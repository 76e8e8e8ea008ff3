package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-eartrain/audio"
	"go-eartrain/config"
	"go-eartrain/debug"
	"go-eartrain/midi"
	"go-eartrain/notation"
	"go-eartrain/sequencer"
	"go-eartrain/theme"
	"go-eartrain/tui"
)

type options struct {
	configPath string
	key        string
	scale      string
	length     int
	tempo      string
	audio      string
	midiPort   string
	keyboard   bool
	seed       int64
	debug      bool
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "eartrain",
		Short:        "Hear a short phrase, then play it back",
		Long:         "Generates a random note sequence in a key and scale, plays it, and scores your attempt to reproduce it.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			seed := opts.seed
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			return run(cfg, seed)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/go-eartrain/config.yaml)")

	f = cmd.Flags()
	f.StringVar(&opts.key, "key", "", "tonic, e.g. C, F#, Bb")
	f.StringVar(&opts.scale, "scale", "", "chromatic, major, minor, pentatonic or blues")
	f.IntVar(&opts.length, "length", 0, fmt.Sprintf("notes per sequence (%d-%d)", sequencer.MinLength, sequencer.MaxLength))
	f.StringVar(&opts.tempo, "tempo", "", "slow, medium or fast")
	f.StringVar(&opts.audio, "audio", "", "synth, midi or none")
	f.StringVar(&opts.midiPort, "midi-port", "", "MIDI output port name (substring) for --audio midi")
	f.BoolVar(&opts.keyboard, "keyboard", true, "accept notes from MIDI keyboards")
	f.Int64Var(&opts.seed, "seed", 0, "random seed (default: time based)")
	f.BoolVar(&opts.debug, "debug", false, "log to "+debug.DefaultPath())

	cmd.AddCommand(newPortsCmd(), newConfigCmd(opts))
	return cmd
}

// loadConfig reads the config file and lets explicitly set flags win
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("key") {
		cfg.Exercise.Key = opts.key
	}
	if flags.Changed("scale") {
		cfg.Exercise.Scale = opts.scale
	}
	if flags.Changed("length") {
		cfg.Exercise.Length = opts.length
	}
	if flags.Changed("tempo") {
		cfg.Exercise.Tempo = opts.tempo
	}
	if flags.Changed("audio") {
		cfg.Audio.Backend = opts.audio
	}
	if flags.Changed("midi-port") {
		cfg.Audio.MIDIPort = opts.midiPort
	}
	if flags.Changed("keyboard") {
		cfg.Input.MIDIKeyboard = opts.keyboard
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// audioPlayer is the session's player plus shutdown
type audioPlayer interface {
	sequencer.AudioPlayer
	Close() error
}

type nopCloser struct{ sequencer.AudioPlayer }

func (nopCloser) Close() error { return nil }

func newAudioPlayer(cfg config.AudioConfig) audioPlayer {
	switch cfg.Backend {
	case config.BackendMIDI:
		return midi.NewPlayer(midi.PlayerConfig{
			Port:     cfg.MIDIPort,
			Channel:  uint8(cfg.Channel - 1),
			Velocity: uint8(cfg.Velocity),
		})
	case config.BackendNone:
		return nopCloser{audio.Silent{}}
	}
	return nopCloser{audio.NewSynth(cfg.Volume)}
}

// sessionOptions builds the exercise from a validated config
func sessionOptions(cfg *config.Config, seed int64, player sequencer.AudioPlayer, renderer sequencer.Renderer) sequencer.Options {
	key, _ := cfg.Key()
	scale, _ := cfg.Scale()
	return sequencer.Options{
		Key:      key,
		Scale:    scale,
		Length:   cfg.Length(),
		Tempo:    cfg.Tempo(),
		Seed:     seed,
		Player:   player,
		Renderer: renderer,
	}
}

func run(cfg *config.Config, seed int64) error {
	if cfg.Debug {
		if err := debug.Enable(""); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	player := newAudioPlayer(cfg.Audio)
	staff := notation.NewStaff(notation.ThemeStyles(th))
	session := sequencer.NewSession(sessionOptions(cfg, seed, player, staff))
	debug.Log("main", "session %s key=%s scale=%s audio=%s seed=%d", session.ID(), cfg.Exercise.Key, cfg.Exercise.Scale, cfg.Audio.Backend, seed)

	usesMIDI := cfg.Audio.Backend == config.BackendMIDI || cfg.Input.MIDIKeyboard

	var deviceMgr *midi.DeviceManager
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Input.MIDIKeyboard {
		deviceMgr = midi.NewDeviceManager(cfg.Input.KeyboardPort)
		go deviceMgr.Run(ctx)
	}

	m := tui.NewModel(session, staff, deviceMgr, th)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	session.Stop()
	if err := player.Close(); err != nil {
		debug.Log("audio", "close: %v", err)
	}
	cancel()
	if usesMIDI {
		midi.CloseDriver()
	}
	return runErr
}
