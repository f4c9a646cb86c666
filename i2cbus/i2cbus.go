// Package i2cbus routes byte level I2C transactions from a bus master to
// registered peripheral models. The electrical layer is not modeled: no
// clock stretching, arbitration or timing. A transaction is a start
// condition followed by byte transfers in one direction and a stop
// condition, all dispatched synchronously to the addressed device.
package i2cbus

import "fmt"

// Device is implemented by peripherals attached to the bus.
type Device interface {
	// Connect is called on a start condition routed to the device.
	// read is true for a master read. The return value is the ACK bit.
	Connect(addr uint8, read bool) bool
	// ReadByte returns the next byte for a master read.
	ReadByte() uint8
	// WriteByte accepts a byte from a master write. The return value is the ACK bit.
	WriteByte(data uint8) bool
	// Disconnect is called on the stop condition ending the transaction.
	Disconnect()
}

// Bus is a single I2C segment with one implicit master. Transactions are
// issued through Start/Read/Write/Stop and routed by 7 bit address to the
// device registered there.
type Bus struct {
	devices map[uint8]Device
	active  Device
	read    bool
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{devices: make(map[uint8]Device)}
}

// Register attaches a device at the given 7 bit address. Only one device
// can claim an address.
func (b *Bus) Register(addr uint8, d Device) error {
	if addr > 0x7F {
		return fmt.Errorf("address %#.2x doesn't fit in 7 bits", addr)
	}
	if _, ok := b.devices[addr]; ok {
		return fmt.Errorf("address %#.2x already registered", addr)
	}
	b.devices[addr] = d
	return nil
}

// Start issues a start condition addressed to addr and returns the ACK
// bit. An unclaimed address floats, which reads back as NACK. Starting
// while a transaction is open is a repeated start: the open transaction
// is stopped first.
func (b *Bus) Start(addr uint8, read bool) bool {
	if b.active != nil {
		b.Stop()
	}
	d, ok := b.devices[addr]
	if !ok {
		return false
	}
	if !d.Connect(addr, read) {
		return false
	}
	b.active = d
	b.read = read
	return true
}

// Read transfers one byte from the addressed device to the master.
func (b *Bus) Read() (uint8, error) {
	if b.active == nil {
		return 0x00, fmt.Errorf("read with no transaction open")
	}
	if !b.read {
		return 0x00, fmt.Errorf("read during a write transaction")
	}
	return b.active.ReadByte(), nil
}

// Write transfers one byte from the master to the addressed device and
// returns the device's ACK bit.
func (b *Bus) Write(data uint8) (bool, error) {
	if b.active == nil {
		return false, fmt.Errorf("write with no transaction open")
	}
	if b.read {
		return false, fmt.Errorf("write during a read transaction")
	}
	return b.active.WriteByte(data), nil
}

// Stop issues a stop condition, ending any open transaction. Stopping an
// idle bus is a no-op.
func (b *Bus) Stop() {
	if b.active == nil {
		return
	}
	b.active.Disconnect()
	b.active = nil
}
