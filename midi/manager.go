package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"

	"go-eartrain/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// inPort is one input seen by a scan
type inPort struct {
	name string
	in   drivers.In
}

// DeviceManager handles hot-plug detection of MIDI keyboards and merges
// their key presses into one channel
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	notes       chan NoteEvent
	forwarders  sync.WaitGroup
	pollRate    time.Duration

	// filter is a case-insensitive substring; empty accepts any keyboard
	filter string

	list func() ([]inPort, error)
	open func(id string, in drivers.In) (Controller, error)
}

// NewDeviceManager creates a device manager for keyboards whose port name
// contains filter
func NewDeviceManager(filter string) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		notes:       make(chan NoteEvent, 32),
		pollRate:    time.Second,
		filter:      strings.ToLower(filter),
		list:        listInPorts,
		open: func(id string, in drivers.In) (Controller, error) {
			return NewKeyboardController(id, in)
		},
	}
}

func listInPorts() ([]inPort, error) {
	ports, err := ListPorts(PortTimeout)
	if err != nil {
		return nil, err
	}
	out := make([]inPort, len(ports.In))
	for i, in := range ports.In {
		out[i] = inPort{name: in.String(), in: in}
	}
	return out, nil
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Notes returns key presses from every connected keyboard
func (dm *DeviceManager) Notes() <-chan NoteEvent {
	return dm.notes
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	snapshot := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		snapshot[k] = v
	}
	return snapshot
}

// Run starts the polling loop (blocking - run in goroutine). Both channels
// are closed when ctx is done.
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.shutdown()
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	ports, err := dm.list()
	if err != nil {
		// skip this scan
		debug.LogEvery(30, "midi", "scan: %v", err)
		return
	}
	dm.reconcile(ports)
}

// reconcile opens keyboards that appeared and closes those that went away
func (dm *DeviceManager) reconcile(ports []inPort) {
	seenIDs := make(map[string]bool)

	for _, p := range ports {
		if !dm.isKeyboard(p.name) {
			continue
		}
		id := p.name
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(id, p.in)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		dm.forward(c)

		debug.Log("midi", "keyboard connected: %s", id)
		dm.emit(DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}

	dm.mu.Lock()
	var removed []string
	for id, c := range dm.controllers {
		if !seenIDs[id] {
			c.Close()
			delete(dm.controllers, id)
			removed = append(removed, id)
		}
	}
	dm.mu.Unlock()

	for _, id := range removed {
		debug.Log("midi", "keyboard disconnected: %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

// forward copies a controller's notes until it is closed
func (dm *DeviceManager) forward(c Controller) {
	dm.forwarders.Add(1)
	go func() {
		defer dm.forwarders.Done()
		for ev := range c.NoteEvents() {
			select {
			case dm.notes <- ev:
			default:
			}
		}
	}()
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
		debug.Log("midi", "device event dropped: %s %s", ev.ID, ev.Type)
	}
}

func (dm *DeviceManager) shutdown() {
	dm.mu.Lock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
	dm.mu.Unlock()

	dm.forwarders.Wait()
	close(dm.events)
	close(dm.notes)
}

// isKeyboard skips loopback ports and applies the name filter
func (dm *DeviceManager) isKeyboard(name string) bool {
	name = strings.ToLower(name)
	if strings.Contains(name, "through") {
		return false
	}
	return dm.filter == "" || strings.Contains(name, dm.filter)
}
