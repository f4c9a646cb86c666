package i2cbus

import "testing"

// dev is a scripted device recording what the bus dispatches to it.
type dev struct {
	ack         bool
	connects    []uint8
	reads       int
	writes      []uint8
	disconnects int
}

func (d *dev) Connect(addr uint8, read bool) bool {
	d.connects = append(d.connects, addr)
	return d.ack
}

func (d *dev) ReadByte() uint8 {
	d.reads++
	return uint8(0xA5)
}

func (d *dev) WriteByte(data uint8) bool {
	d.writes = append(d.writes, data)
	return d.ack
}

func (d *dev) Disconnect() {
	d.disconnects++
}

func TestRouting(t *testing.T) {
	b := New()
	d0 := &dev{ack: true}
	d1 := &dev{ack: true}
	if err := b.Register(0x20, d0); err != nil {
		t.Fatalf("Unexpected error registering d0: %v", err)
	}
	if err := b.Register(0x21, d1); err != nil {
		t.Fatalf("Unexpected error registering d1: %v", err)
	}

	if got, want := b.Start(0x21, false), true; got != want {
		t.Fatalf("Bad ACK from start. Got %t and want %t", got, want)
	}
	if ack, err := b.Write(0x42); err != nil || !ack {
		t.Fatalf("Bad write. ack %t err %v", ack, err)
	}
	b.Stop()

	if got, want := len(d0.connects), 0; got != want {
		t.Errorf("Unaddressed device saw %d connects and want %d", got, want)
	}
	if got, want := len(d1.connects), 1; got != want {
		t.Fatalf("Addressed device saw %d connects and want %d", got, want)
	}
	if got, want := d1.connects[0], uint8(0x21); got != want {
		t.Errorf("Bad connect address. Got %#.2x and want %#.2x", got, want)
	}
	if got, want := len(d1.writes), 1; got != want {
		t.Fatalf("Bad write count. Got %d and want %d", got, want)
	}
	if got, want := d1.writes[0], uint8(0x42); got != want {
		t.Errorf("Bad write byte. Got %#.2x and want %#.2x", got, want)
	}
	if got, want := d1.disconnects, 1; got != want {
		t.Errorf("Bad disconnect count. Got %d and want %d", got, want)
	}
}

func TestUnclaimedAddressNacks(t *testing.T) {
	b := New()
	if got, want := b.Start(0x50, true), false; got != want {
		t.Errorf("Start on an empty bus. Got %t and want %t", got, want)
	}
	if _, err := b.Read(); err == nil {
		t.Error("Didn't get error reading after a NACKed start?")
	}
}

func TestNackingDeviceStaysUnselected(t *testing.T) {
	b := New()
	d := &dev{ack: false}
	if err := b.Register(0x20, d); err != nil {
		t.Fatalf("Unexpected error registering: %v", err)
	}
	if got, want := b.Start(0x20, false), false; got != want {
		t.Errorf("Bad ACK from NACKing device. Got %t and want %t", got, want)
	}
	if _, err := b.Write(0x00); err == nil {
		t.Error("Didn't get error writing after a NACKed start?")
	}
}

func TestRegisterErrors(t *testing.T) {
	b := New()
	d := &dev{ack: true}
	if err := b.Register(0x80, d); err == nil {
		t.Error("Didn't get error for an 8 bit address?")
	}
	if err := b.Register(0x20, d); err != nil {
		t.Fatalf("Unexpected error registering: %v", err)
	}
	if err := b.Register(0x20, d); err == nil {
		t.Error("Didn't get error for a duplicate address?")
	}
}

func TestDirectionMisuse(t *testing.T) {
	b := New()
	d := &dev{ack: true}
	if err := b.Register(0x20, d); err != nil {
		t.Fatalf("Unexpected error registering: %v", err)
	}
	if got, want := b.Start(0x20, true), true; got != want {
		t.Fatalf("Bad ACK from start. Got %t and want %t", got, want)
	}
	if _, err := b.Write(0x00); err == nil {
		t.Error("Didn't get error writing during a read transaction?")
	}
	if _, err := b.Read(); err != nil {
		t.Errorf("Unexpected error reading: %v", err)
	}
	b.Stop()
	b.Stop() // Idle stop is fine.
	if _, err := b.Read(); err == nil {
		t.Error("Didn't get error reading with no transaction open?")
	}
}

func TestRepeatedStart(t *testing.T) {
	b := New()
	d := &dev{ack: true}
	if err := b.Register(0x20, d); err != nil {
		t.Fatalf("Unexpected error registering: %v", err)
	}
	if got, want := b.Start(0x20, false), true; got != want {
		t.Fatalf("Bad ACK from first start. Got %t and want %t", got, want)
	}
	// A start with the transaction still open implies a stop first.
	if got, want := b.Start(0x20, true), true; got != want {
		t.Fatalf("Bad ACK from repeated start. Got %t and want %t", got, want)
	}
	if got, want := d.disconnects, 1; got != want {
		t.Errorf("Bad disconnect count after repeated start. Got %d and want %d", got, want)
	}
	if got, want := len(d.connects), 2; got != want {
		t.Errorf("Bad connect count. Got %d and want %d", got, want)
	}
}
