package pins

import (
	"fmt"
	"math/bits"

	d2r2log "github.com/d2r2/go-logger"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var lg = d2r2log.NewPackageLogger("pins", d2r2log.InfoLevel)

// Names holds the host pin names of the display signals, e.g. "GPIO4".
type Names struct {
	RS   string
	EN   string
	Data [4]string // DB4..DB7
}

// GPIO is a Port backed by periph.io pins. Every port line is a separate
// host pin; the output register is kept as a shadow copy.
type GPIO struct {
	lines [Width]gpio.PinIO
	dir   Bits
	out   Bits
	err   error
}

// Open initializes the host drivers and looks up the pins named in n,
// placing them on the port lines given by w.
func Open(w Wiring, n Names) (*GPIO, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pins: host init failed: %w", err)
	}
	var lines [Width]gpio.PinIO
	lookup := func(line Bits, name string) error {
		p := gpioreg.ByName(name)
		if p == nil {
			return fmt.Errorf("pins: failed to find %q", name)
		}
		lines[lineIndex(line)] = p
		return nil
	}
	if err := lookup(w.RS, n.RS); err != nil {
		return nil, err
	}
	if err := lookup(w.EN, n.EN); err != nil {
		return nil, err
	}
	for i, name := range n.Data {
		if err := lookup(w.Nibble(1<<i), name); err != nil {
			return nil, err
		}
	}
	lg.Debugf("opened RS=%s EN=%s DATA=%v", n.RS, n.EN, n.Data)
	return NewGPIO(lines), nil
}

// NewGPIO returns a port over already resolved pins. Nil entries are lines
// that are not wired; writes to them are dropped.
func NewGPIO(lines [Width]gpio.PinIO) *GPIO {
	return &GPIO{lines: lines}
}

func lineIndex(b Bits) int {
	return bits.TrailingZeros8(uint8(b))
}

func (g *GPIO) SetDirection(out Bits) {
	g.dir = out
	for i, p := range g.lines {
		if p == nil {
			continue
		}
		b := Bits(1 << i)
		if out&b != 0 {
			g.check(p, p.Out(gpio.Level(g.out&b != 0)))
		} else {
			g.check(p, p.In(gpio.PullNoChange, gpio.NoEdge))
		}
	}
}

func (g *GPIO) Set(b Bits) {
	g.write(b, gpio.High)
	g.out |= b
}

func (g *GPIO) Clear(b Bits) {
	g.write(b, gpio.Low)
	g.out &^= b
}

func (g *GPIO) write(b Bits, l gpio.Level) {
	for i, p := range g.lines {
		if p == nil || b&(1<<i) == 0 {
			continue
		}
		g.check(p, p.Out(l))
	}
}

// check keeps the first failure; later ones are only logged.
func (g *GPIO) check(p gpio.PinIO, err error) {
	if err == nil {
		return
	}
	lg.Errorf("%s: %s", p.Name(), err)
	if g.err == nil {
		g.err = fmt.Errorf("pins: %s: %w", p.Name(), err)
	}
}

// Output returns the shadow copy of the output register.
func (g *GPIO) Output() Bits {
	return g.out
}

// Direction returns the lines configured as outputs.
func (g *GPIO) Direction() Bits {
	return g.dir
}

// Err returns the first pin failure seen since the port was created.
func (g *GPIO) Err() error {
	return g.err
}

// Halt releases every wired pin.
func (g *GPIO) Halt() error {
	var first error
	for _, p := range g.lines {
		if p == nil {
			continue
		}
		if err := p.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (g *GPIO) String() string {
	var names []string
	for _, p := range g.lines {
		if p != nil {
			names = append(names, p.Name())
		}
	}
	return fmt.Sprintf("pins.GPIO%v", names)
}

var _ Port = &GPIO{}
