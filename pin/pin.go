// Package pin models the electrical state of named simulator pins.
// A pin has a mode set by the chip that owns it and an optional external
// drive applied by whatever the pin is wired to (the testbench or another
// part on the board). Reads resolve the two the way a pulled-up or
// open-drain net would. Watches only fire on external level changes so a
// chip reconfiguring its own pins never observes itself mid-update.
package pin

import "fmt"

// Mode defines the electrical configuration of a pin as set by its owner.
type Mode int

const (
	INPUT        Mode = iota // High impedance, reads low unless externally driven.
	INPUT_PULLUP             // High impedance with pull-up, reads high unless externally driven.
	OUTPUT_LOW               // Actively driven low.
	OUTPUT_HIGH              // Actively driven high.
)

// Edge selects which external transitions a watch reports.
type Edge int

const (
	RISING Edge = iota
	FALLING
	BOTH
)

// WatchFunc is called when a watched pin's resolved level changes.
// The new level is passed along with the pin for callbacks shared
// across several pins.
type WatchFunc func(p *Pin, level bool)

// Pin is a single named electrical connection point on a simulated part.
type Pin struct {
	name   string
	mode   Mode
	driven bool // An external drive is applied.
	level  bool // The externally driven level. Only meaningful when driven.
	edge   Edge
	watch  WatchFunc
}

// Name returns the pin's package designator (e.g. "P07" or "nINT").
func (p *Pin) Name() string {
	return p.name
}

// Mode returns the currently configured electrical mode.
func (p *Pin) Mode() Mode {
	return p.mode
}

// SetMode reconfigures the pin's electrical mode. Watches are not fired
// even if this changes the resolved level since owners reconfigure their
// own pins and shouldn't see their own transitions as external events.
func (p *Pin) SetMode(m Mode) {
	p.mode = m
}

// Read returns the resolved logic level of the pin. Output modes report
// their driven level regardless of any external drive (contention is not
// modeled). Input modes report the external drive when present, otherwise
// the pull-up default.
func (p *Pin) Read() bool {
	switch p.mode {
	case OUTPUT_LOW:
		return false
	case OUTPUT_HIGH:
		return true
	}
	if p.driven {
		return p.level
	}
	return p.mode == INPUT_PULLUP
}

// Drive applies an external level to the pin, as a testbench or another
// part's output would. Fires the watch if the resolved level changes.
func (p *Pin) Drive(level bool) {
	old := p.Read()
	p.driven = true
	p.level = level
	p.fire(old)
}

// Release removes any external drive and lets the pin float back to its
// pull-up default. Fires the watch if the resolved level changes.
func (p *Pin) Release() {
	old := p.Read()
	p.driven = false
	p.fire(old)
}

// Watch registers fn to be called on external transitions of the given
// edge type. A pin holds at most one watch; registering replaces any
// previous one.
func (p *Pin) Watch(edge Edge, fn WatchFunc) {
	p.edge = edge
	p.watch = fn
}

// StopWatch removes any registered watch.
func (p *Pin) StopWatch() {
	p.watch = nil
}

func (p *Pin) fire(old bool) {
	cur := p.Read()
	if cur == old || p.watch == nil {
		return
	}
	if (p.edge == RISING && !cur) || (p.edge == FALLING && cur) {
		return
	}
	p.watch(p, cur)
}

// Registry allocates and tracks the named pins of a simulated board.
type Registry struct {
	pins map[string]*Pin
}

// NewRegistry returns an empty pin registry.
func NewRegistry() *Registry {
	return &Registry{pins: make(map[string]*Pin)}
}

// Init allocates a new named pin with the given initial mode.
// Names must be unique within a registry.
func (r *Registry) Init(name string, mode Mode) (*Pin, error) {
	if _, ok := r.pins[name]; ok {
		return nil, fmt.Errorf("pin %s already allocated", name)
	}
	p := &Pin{name: name, mode: mode}
	r.pins[name] = p
	return p, nil
}

// Pin returns the pin with the given name or nil if it doesn't exist.
func (r *Registry) Pin(name string) *Pin {
	return r.pins[name]
}
