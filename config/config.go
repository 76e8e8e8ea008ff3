package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"go-eartrain/debug"
	"go-eartrain/music"
	"go-eartrain/sequencer"
)

// Audio backends
const (
	BackendSynth = "synth"
	BackendMIDI  = "midi"
	BackendNone  = "none"
)

// ExerciseConfig is the starting selection
type ExerciseConfig struct {
	Key    string `yaml:"key"`
	Scale  string `yaml:"scale"`
	Length int    `yaml:"length"`
	Tempo  string `yaml:"tempo"`
}

// AudioConfig selects how notes are sounded
type AudioConfig struct {
	Backend  string  `yaml:"backend"`
	Volume   float64 `yaml:"volume"`
	MIDIPort string  `yaml:"midi_port,omitempty"`
	Channel  int     `yaml:"channel"`  // 1-16
	Velocity int     `yaml:"velocity"` // 1-127
}

// InputConfig controls MIDI keyboard input
type InputConfig struct {
	MIDIKeyboard bool   `yaml:"midi_keyboard"`
	KeyboardPort string `yaml:"keyboard_port,omitempty"` // substring filter
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `yaml:"palette,omitempty"` // GIMP .gpl file
}

// Config is the main configuration structure
type Config struct {
	Exercise ExerciseConfig `yaml:"exercise"`
	Audio    AudioConfig    `yaml:"audio"`
	Input    InputConfig    `yaml:"input"`
	UI       UIConfig       `yaml:"ui"`
	Debug    bool           `yaml:"debug"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Exercise: ExerciseConfig{
			Key:    "C",
			Scale:  "major",
			Length: sequencer.DefaultLength,
			Tempo:  string(sequencer.TempoMedium),
		},
		Audio: AudioConfig{
			Backend:  BackendSynth,
			Volume:   0.5,
			Channel:  1,
			Velocity: 100,
		},
		Input: InputConfig{
			MIDIKeyboard: true,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-eartrain"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults; a missing file gives the defaults
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate rejects names and ranges the exercise cannot start with. Length
// and tempo are not checked: they are clamped and defaulted downstream.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Key(); err != nil {
		errs = append(errs, fmt.Errorf("exercise.key: %w", err))
	}
	if _, err := c.Scale(); err != nil {
		errs = append(errs, fmt.Errorf("exercise.scale: %w", err))
	}
	switch c.Audio.Backend {
	case BackendSynth, BackendMIDI, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("audio.backend: unknown backend %q", c.Audio.Backend))
	}
	if c.Audio.Channel < 1 || c.Audio.Channel > 16 {
		errs = append(errs, fmt.Errorf("audio.channel: %d not in 1-16", c.Audio.Channel))
	}
	if c.Audio.Velocity < 1 || c.Audio.Velocity > 127 {
		errs = append(errs, fmt.Errorf("audio.velocity: %d not in 1-127", c.Audio.Velocity))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume: %g not in 0-1", c.Audio.Volume))
	}
	return errors.Join(errs...)
}

// Key parses exercise.key
func (c *Config) Key() (music.Key, error) {
	return music.ParseKey(c.Exercise.Key)
}

// Scale parses exercise.scale
func (c *Config) Scale() (music.ScaleType, error) {
	return music.ParseScaleType(c.Exercise.Scale)
}

// Length is exercise.length clamped to the sequence bounds, so 0 and
// negative values mean the shortest sequence
func (c *Config) Length() int {
	n := sequencer.ClampLength(c.Exercise.Length)
	if n != c.Exercise.Length {
		debug.Log("config", "exercise.length %d out of range, clamped to %d", c.Exercise.Length, n)
	}
	return n
}

// Tempo resolves exercise.tempo; unknown names are medium
func (c *Config) Tempo() sequencer.Tempo {
	return sequencer.ParseTempo(c.Exercise.Tempo)
}
