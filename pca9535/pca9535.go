// Package pca9535 implements the behavioral state of a PCA9535 16-bit
// I2C I/O expander as described in
// https://www.nxp.com/docs/en/data-sheet/PCA9535_PCA9535C.pdf
//
// The model is purely reactive: all state changes happen inside bus
// callbacks (i2cbus.Device) or pin watch callbacks, matching the single
// threaded event dispatch of the host simulator.
package pca9535

import (
	"errors"
	"fmt"
	"log"

	"github.com/martinberlin/wokwi-pca9535/i2cbus"
	"github.com/martinberlin/wokwi-pca9535/irq"
	"github.com/martinberlin/wokwi-pca9535/pin"
)

var (
	_ = i2cbus.Device(&Chip{})
	_ = irq.Sender(&Chip{})
)

// byteState tracks which half of the two byte port pair the current
// transaction is on. Transfers longer than two bytes wrap back to the
// low port, matching the auto-wrapping register pointer of the real part.
type byteState int

const (
	kAWAITING_LOW_BYTE byteState = iota
	kAWAITING_HIGH_BYTE
)

const (
	kI2C_BASE_ADDRESS = uint8(0x20)
	kNUM_IO           = 16
	kNUM_ADDR_BITS    = 3
)

var addrPinNames = [kNUM_ADDR_BITS]string{"A0", "A1", "A2"}

var ioPinNames = [kNUM_IO]string{
	"P00", "P01", "P02", "P03", "P04", "P05", "P06", "P07",
	"P10", "P11", "P12", "P13", "P14", "P15", "P16", "P17",
}

// Chip implements one PCA9535. Lines 0-7 are port 0 (P00-P07) and lines
// 8-15 are port 1 (P10-P17). Each line is either a watched input with
// pull-up or an output tied low, per the last configuration written over
// the bus.
type Chip struct {
	debug         bool
	address       uint8
	addressBits   [kNUM_ADDR_BITS]*pin.Pin
	nINT          *pin.Pin
	io            [kNUM_IO]*pin.Pin
	inputMask     uint16 // Bit set == line is a watched input.
	inputValue    uint16 // Live snapshot of the input lines. Output line bits are left clear.
	lastReadValue uint16 // Snapshot handed to the master on the most recent read connect.
	state         byteState
}

// ChipDef defines the pieces needed to put a PCA9535 on a simulated board.
type ChipDef struct {
	// Pins is the registry the chip allocates its package pins from.
	Pins *pin.Registry
	// Bus is the I2C segment the chip registers on at its pin strapped address.
	Bus *i2cbus.Bus
	// Wire if non-nil is called once the chip's pins exist but before the
	// address is sampled and the chip registers on the bus. It stands in
	// for board wiring such as strapping A0-A2 or holding an input low at
	// power on.
	Wire func(pins *pin.Registry)
	// Debug if true will emit output from Debug() calls.
	Debug bool
}

// Init returns a fully initialized PCA9535 registered on the def's bus.
// Power-on state is all 16 lines configured as inputs reading high
// through their pull-ups and nINT released.
func Init(def *ChipDef) (*Chip, error) {
	if def.Pins == nil {
		return nil, errors.New("a pin registry must be non-nil in def")
	}
	if def.Bus == nil {
		return nil, errors.New("an i2c bus must be non-nil in def")
	}
	c := &Chip{debug: def.Debug}

	var err error
	for i, name := range addrPinNames {
		if c.addressBits[i], err = def.Pins.Init(name, pin.INPUT); err != nil {
			return nil, fmt.Errorf("can't initialize address pin %s: %v", name, err)
		}
		c.addressBits[i].Watch(pin.BOTH, c.addressChanged)
	}
	if c.nINT, err = def.Pins.Init("nINT", pin.INPUT); err != nil {
		return nil, fmt.Errorf("can't initialize nINT: %v", err)
	}
	for i, name := range ioPinNames {
		if c.io[i], err = def.Pins.Init(name, pin.INPUT_PULLUP); err != nil {
			return nil, fmt.Errorf("can't initialize I/O pin %s: %v", name, err)
		}
		c.io[i].Watch(pin.BOTH, c.ioChanged)
	}

	c.inputMask = 0xFFFF
	if def.Wire != nil {
		def.Wire(def.Pins)
	}
	c.inputValue = c.readInputs()
	// Start agreeing with the inputs so a fresh chip doesn't flag an
	// interrupt before anything has changed.
	c.lastReadValue = c.inputValue
	c.interruptOff()

	c.address = c.readAddress()
	if err := def.Bus.Register(c.address, c); err != nil {
		return nil, fmt.Errorf("can't register on bus: %v", err)
	}
	return c, nil
}

// readAddress samples the address select pins as the low bits over the
// fixed base address.
func (c *Chip) readAddress() uint8 {
	addr := kI2C_BASE_ADDRESS
	for i := range c.addressBits {
		if c.addressBits[i].Read() {
			addr |= uint8(1) << uint(i)
		}
	}
	return addr
}

// addressChanged is the watch callback for the address select pins. The
// new address applies to the next connect; the bus keeps routing by the
// address registered at init, which Connect reports as a mismatch.
func (c *Chip) addressChanged(p *pin.Pin, level bool) {
	c.address = c.readAddress()
}

// readInputs reads the combined value of the input configured lines.
// Output lines contribute nothing; their bits are simply left clear.
func (c *Chip) readInputs() uint16 {
	var val uint16
	for i := range c.io {
		if c.inputMask&(uint16(1)<<uint(i)) != 0 && c.io[i].Read() {
			val |= uint16(1) << uint(i)
		}
	}
	return val
}

// ioChanged is the watch callback for all input configured lines. It
// recomputes the live snapshot and derives nINT from it. A change that
// reverts before the master reads cancels the interrupt - changes can be
// missed that way, but that's how the part works.
func (c *Chip) ioChanged(p *pin.Pin, level bool) {
	c.inputValue = c.readInputs()
	if c.inputValue != c.lastReadValue {
		c.interruptOn()
	} else {
		c.interruptOff()
	}
}

// nINT is open drain: asserted means switched to ground, released means
// the line floats.
func (c *Chip) interruptOn() {
	c.nINT.SetMode(pin.OUTPUT_LOW)
}

func (c *Chip) interruptOff() {
	c.nINT.SetMode(pin.INPUT)
}

// port returns the shift for the half of the port pair the transaction
// is currently on.
func (c *Chip) port() uint {
	if c.state == kAWAITING_HIGH_BYTE {
		return 8
	}
	return 0
}

// advance moves the transaction to the other half of the port pair.
func (c *Chip) advance() {
	if c.state == kAWAITING_LOW_BYTE {
		c.state = kAWAITING_HIGH_BYTE
		return
	}
	c.state = kAWAITING_LOW_BYTE
}

// Connect implements i2cbus.Device. The chip ACKs unconditionally. A
// mismatched address is only reported: the bus routes by the address
// registered at init while the chip tracks its live pin strapped one, so
// the two drift apart if the select pins move after power on.
func (c *Chip) Connect(addr uint8, read bool) bool {
	if addr != c.address {
		log.Printf("pca9535: connect for address %#.2x but strapped to %#.2x", addr, c.address)
	}
	c.state = kAWAITING_LOW_BYTE
	if read {
		// A read transaction hands the master the snapshot as of the
		// start condition and acknowledges the interrupt there, not on
		// the byte transfers that follow.
		c.lastReadValue = c.inputValue
		c.interruptOff()
	}
	return true
}

// ReadByte implements i2cbus.Device, returning the current half of the
// input snapshot, low port first.
func (c *Chip) ReadByte() uint8 {
	val := uint8(c.inputValue >> c.port())
	c.advance()
	return val
}

// WriteByte implements i2cbus.Device. Each bit reconfigures one line of
// the current port: 1 makes the line a watched input with pull-up, 0 ties
// it low as an output. The first byte of a transaction starts a fresh
// mask so repeated configurations don't accumulate.
func (c *Chip) WriteByte(data uint8) bool {
	if c.state == kAWAITING_LOW_BYTE {
		c.inputMask = 0
	}
	for i := uint(0); i < 8; i++ {
		idx := i + c.port()
		target := c.io[idx]
		// Whatever watch the line had is stale once it changes role.
		target.StopWatch()
		if data&(uint8(1)<<i) != 0 {
			c.inputMask |= uint16(1) << idx
			target.SetMode(pin.INPUT_PULLUP)
			target.Watch(pin.BOTH, c.ioChanged)
		} else {
			target.SetMode(pin.OUTPUT_LOW)
		}
	}
	c.advance()
	return true
}

// Disconnect implements i2cbus.Device. Nothing happens on a stop
// condition.
func (c *Chip) Disconnect() {}

// Raised implements the irq.Sender interface. True while nINT is driven
// low.
func (c *Chip) Raised() bool {
	return c.nINT.Mode() == pin.OUTPUT_LOW
}

// Address returns the chip's current pin strapped bus address.
func (c *Chip) Address() uint8 {
	return c.address
}

func (c *Chip) Debug() string {
	if c.debug {
		return fmt.Sprintf("addr: %#.2x mask: %.4X in: %.4X last: %.4X INT: %t\n", c.address, c.inputMask, c.inputValue, c.lastReadValue, c.Raised())
	}
	return ""
}
