package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-eartrain/audio"
	"go-eartrain/config"
	"go-eartrain/midi"
	"go-eartrain/sequencer"
)

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := config.DefaultConfig()
	file.Exercise.Scale = "minor"
	file.Exercise.Tempo = "slow"
	require.NoError(t, file.SaveTo(path))

	opts := &options{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--key", "Bb", "--length", "8", "--keyboard=false"}))

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "Bb", cfg.Exercise.Key)
	assert.Equal(t, 8, cfg.Exercise.Length)
	assert.Equal(t, "minor", cfg.Exercise.Scale, "unset flag keeps file value")
	assert.Equal(t, "slow", cfg.Exercise.Tempo)
	assert.False(t, cfg.Input.MIDIKeyboard)
}

func TestInvalidFlagIsRejected(t *testing.T) {
	opts := &options{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--scale", "lydian"}))

	_, err := loadConfig(cmd, opts)
	assert.ErrorContains(t, err, "exercise.scale")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eartrain", "config.yaml")

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd(&options{})
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run("config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run("config", "init", "--config", path, "--force")
	assert.NoError(t, err)

	out, err = run("config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "backend: synth")
}

func TestPrintPorts(t *testing.T) {
	var out bytes.Buffer
	printPorts(&out, []string{"Keystation 49"}, nil)
	assert.Equal(t, "=== MIDI Input Ports ===\n  0: Keystation 49\n\n=== MIDI Output Ports ===\n  (none)\n", out.String())
}

func TestNewAudioPlayer(t *testing.T) {
	cfg := config.DefaultConfig().Audio

	_, isMIDI := newAudioPlayer(config.AudioConfig{Backend: config.BackendMIDI, Channel: 1, Velocity: 100}).(*midi.Player)
	assert.True(t, isMIDI)

	p := newAudioPlayer(config.AudioConfig{Backend: config.BackendNone})
	assert.Equal(t, nopCloser{audio.Silent{}}, p)

	synth, ok := newAudioPlayer(cfg).(nopCloser)
	require.True(t, ok)
	assert.IsType(t, &audio.Synth{}, synth.AudioPlayer)
}

func TestNonPositiveLengthGivesShortestSequence(t *testing.T) {
	for _, arg := range []string{"0", "-1"} {
		opts := &options{}
		cmd := newRootCmd(opts)
		require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--length", arg}))

		cfg, err := loadConfig(cmd, opts)
		require.NoError(t, err)

		sessionOpts := sessionOptions(cfg, 1, nil, nil)
		sessionOpts.Clock = sequencer.NewManualClock()
		session := sequencer.NewSession(sessionOpts)
		assert.Len(t, session.Generate(), sequencer.MinLength, "--length %s", arg)
	}
}
