// Binary expsim wires a PCA9535 model onto a simulated board and lets
// you poke at it from a terminal: drive I/O lines, move the address
// straps and run master transactions while watching nINT.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gdamore/tcell"
	"github.com/martinberlin/wokwi-pca9535/i2cbus"
	"github.com/martinberlin/wokwi-pca9535/pca9535"
	"github.com/martinberlin/wokwi-pca9535/pin"
)

var (
	debug  = flag.Bool("debug", false, "If true will emit chip state on the status line after every event")
	config = flag.Uint("config", 0xFFFF, "Initial 16 bit configuration written over the bus (1 bits become inputs)")
	strap  = flag.Uint("strap", 0, "Address strap wired onto A2..A0 (0-7)")
)

// drive tracks what the testbench applies to a line externally.
type drive int

const (
	kFLOAT drive = iota
	kLOW
	kHIGH
)

var ioPinNames = [16]string{
	"P00", "P01", "P02", "P03", "P04", "P05", "P06", "P07",
	"P10", "P11", "P12", "P13", "P14", "P15", "P16", "P17",
}

type board struct {
	pins   *pin.Registry
	bus    *i2cbus.Bus
	chip   *pca9535.Chip
	drives [16]drive
	cursor int
	status string
}

func (b *board) applyDrive(i int) {
	p := b.pins.Pin(ioPinNames[i])
	switch b.drives[i] {
	case kFLOAT:
		p.Release()
	case kLOW:
		p.Drive(false)
	case kHIGH:
		p.Drive(true)
	}
}

// writeConfig runs a full 2 byte configuration transaction.
func (b *board) writeConfig(cfg uint16) {
	addr := b.chip.Address()
	if !b.bus.Start(addr, false) {
		b.status = fmt.Sprintf("NACK starting write at %#.2x", addr)
		return
	}
	defer b.bus.Stop()
	for _, data := range []uint8{uint8(cfg), uint8(cfg >> 8)} {
		if _, err := b.bus.Write(data); err != nil {
			b.status = fmt.Sprintf("write failed: %v", err)
			return
		}
	}
	b.status = fmt.Sprintf("wrote config %.4X", cfg)
}

// readPorts runs a full 2 byte read transaction.
func (b *board) readPorts() {
	addr := b.chip.Address()
	if !b.bus.Start(addr, true) {
		b.status = fmt.Sprintf("NACK starting read at %#.2x", addr)
		return
	}
	defer b.bus.Stop()
	lo, err := b.bus.Read()
	if err != nil {
		b.status = fmt.Sprintf("read failed: %v", err)
		return
	}
	hi, err := b.bus.Read()
	if err != nil {
		b.status = fmt.Sprintf("read failed: %v", err)
		return
	}
	b.status = fmt.Sprintf("read %.4X", uint16(hi)<<8|uint16(lo))
}

func modeRune(m pin.Mode) rune {
	switch m {
	case pin.INPUT:
		return 'i'
	case pin.INPUT_PULLUP:
		return 'I'
	case pin.OUTPUT_LOW:
		return 'L'
	case pin.OUTPUT_HIGH:
		return 'H'
	}
	return '?'
}

func levelRune(l bool) rune {
	if l {
		return '1'
	}
	return '0'
}

func emit(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func (b *board) draw(s tcell.Screen) {
	s.Clear()
	plain := tcell.StyleDefault
	hot := tcell.StyleDefault.Foreground(tcell.ColorRed)
	sel := tcell.StyleDefault.Reverse(true)

	emit(s, 0, 0, plain, fmt.Sprintf("PCA9535 @ %#.2x", b.chip.Address()))
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("A%d", i)
		emit(s, 16+4*i, 0, plain, fmt.Sprintf("%s=%c", name, levelRune(b.pins.Pin(name).Read())))
	}
	intStyle := plain
	intText := "nINT high"
	if b.chip.Raised() {
		intStyle = hot
		intText = "nINT LOW "
	}
	emit(s, 32, 0, intStyle, intText)

	for i, name := range ioPinNames {
		x := (i % 8) * 9
		y := 2 + i/8
		style := plain
		if i == b.cursor {
			style = sel
		}
		p := b.pins.Pin(name)
		d := ' '
		switch b.drives[i] {
		case kLOW:
			d = 'v'
		case kHIGH:
			d = '^'
		}
		emit(s, x, y, style, fmt.Sprintf("%s %c%c%c", name, modeRune(p.Mode()), levelRune(p.Read()), d))
	}

	emit(s, 0, 5, plain, "arrows move - space cycles drive - r read - w write config - a/s/d straps - q quits")
	emit(s, 0, 6, plain, b.status)
	if *debug {
		emit(s, 0, 7, plain, b.chip.Debug())
	}
	s.Show()
}

func (b *board) toggleStrap(i int) {
	name := fmt.Sprintf("A%d", i)
	p := b.pins.Pin(name)
	p.Drive(!p.Read())
	b.status = fmt.Sprintf("%s toggled, chip now at %#.2x (bus registration unchanged)", name, b.chip.Address())
}

func main() {
	flag.Parse()
	if *strap > 7 {
		log.Fatalf("strap %d doesn't fit on 3 pins", *strap)
	}

	b := &board{
		pins:   pin.NewRegistry(),
		bus:    i2cbus.New(),
		status: "ready",
	}
	chip, err := pca9535.Init(&pca9535.ChipDef{
		Pins: b.pins,
		Bus:  b.bus,
		Wire: func(pins *pin.Registry) {
			for i := 0; i < 3; i++ {
				pins.Pin(fmt.Sprintf("A%d", i)).Drive(*strap&(1<<uint(i)) != 0)
			}
		},
		Debug: *debug,
	})
	if err != nil {
		log.Fatalf("can't init chip: %v", err)
	}
	b.chip = chip
	b.writeConfig(uint16(*config))

	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	s, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("can't create screen: %v", err)
	}
	if err := s.Init(); err != nil {
		log.Fatalf("can't init screen: %v", err)
	}
	defer s.Fini()

	for {
		b.draw(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape:
				return
			case tcell.KeyLeft:
				if b.cursor > 0 {
					b.cursor--
				}
			case tcell.KeyRight:
				if b.cursor < len(ioPinNames)-1 {
					b.cursor++
				}
			case tcell.KeyUp:
				if b.cursor >= 8 {
					b.cursor -= 8
				}
			case tcell.KeyDown:
				if b.cursor < 8 {
					b.cursor += 8
				}
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q':
					return
				case ' ':
					b.drives[b.cursor] = (b.drives[b.cursor] + 1) % 3
					b.applyDrive(b.cursor)
				case 'r':
					b.readPorts()
				case 'w':
					b.writeConfig(uint16(*config))
				case 'a':
					b.toggleStrap(0)
				case 's':
					b.toggleStrap(1)
				case 'd':
					b.toggleStrap(2)
				}
			}
		}
	}
}
