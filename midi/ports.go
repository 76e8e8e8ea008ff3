package midi

import (
	"errors"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortTimeout bounds a port query; CoreMIDI can hang
const PortTimeout = 3 * time.Second

// ErrPortTimeout is returned when the driver does not answer in time
var ErrPortTimeout = errors.New("midi driver did not respond (on macOS try: sudo killall coreaudiod midiserver)")

// Ports is one snapshot of the system's MIDI ports
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// InNames returns input port names in driver order
func (p Ports) InNames() []string {
	names := make([]string, len(p.In))
	for i, in := range p.In {
		names[i] = in.String()
	}
	return names
}

// OutNames returns output port names in driver order
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Out))
	for i, out := range p.Out {
		names[i] = out.String()
	}
	return names
}

// ListPorts queries the driver, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		return Ports{}, ErrPortTimeout
	}
}

// CloseDriver releases the MIDI driver at shutdown
func CloseDriver() {
	gomidi.CloseDriver()
}
