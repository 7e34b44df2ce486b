// Package pins describes the group of signal lines wired to the display and
// the narrow register interface the driver uses to toggle them.
package pins

import (
	"fmt"
	"strings"
)

// Bits is a set of signal lines, one bit per line of an 8 line port.
type Bits uint8

const (
	Bit0 Bits = 1 << iota
	Bit1
	Bit2
	Bit3
	Bit4
	Bit5
	Bit6
	Bit7
)

// Width is the number of lines a Port can address.
const Width = 8

// Has reports whether every line of m is in b.
func (b Bits) Has(m Bits) bool {
	return b&m == m
}

func (b Bits) String() string {
	if b == 0 {
		return "0"
	}
	var set []string
	for i := 0; i < Width; i++ {
		if b&(1<<i) != 0 {
			set = append(set, fmt.Sprintf("BIT%d", i))
		}
	}
	return strings.Join(set, "|")
}

// Port is the hardware facing side of the driver: a direction register and
// an output register for a fixed group of lines.
type Port interface {
	// SetDirection configures the lines in out as outputs and every other
	// line as input.
	SetDirection(out Bits)
	// Set drives the lines in b high.
	Set(b Bits)
	// Clear drives the lines in b low.
	Clear(b Bits)
}

// Wiring maps the display signals onto port lines. It describes physical
// wiring and is fixed for a build.
type Wiring struct {
	RS        Bits // register-select, high for character data
	EN        Bits // enable strobe, falling edge latches the data lines
	DataShift uint // first of the 4 consecutive data lines (DB4)
}

// DefaultWiring is RS on line 0, EN on line 1 and DB4..DB7 on lines 2..5.
var DefaultWiring = Wiring{RS: Bit0, EN: Bit1, DataShift: 2}

// Data returns the mask of the 4 data lines.
func (w Wiring) Data() Bits {
	return Bits(0x0F << w.DataShift)
}

// All returns every line used by the display.
func (w Wiring) All() Bits {
	return w.RS | w.EN | w.Data()
}

// Nibble positions the low 4 bits of v on the data lines.
func (w Wiring) Nibble(v byte) Bits {
	return Bits((v&0x0F)<<w.DataShift) & w.Data()
}

// Validate checks that the data lines fit the port and that no signal shares
// a line with another one.
func (w Wiring) Validate() error {
	if w.DataShift > Width-4 {
		return fmt.Errorf("pins: data lines start at %d, must be <= %d", w.DataShift, Width-4)
	}
	if w.RS == 0 || w.EN == 0 {
		return fmt.Errorf("pins: RS and EN must be wired")
	}
	if w.RS&(w.RS-1) != 0 || w.EN&(w.EN-1) != 0 {
		return fmt.Errorf("pins: RS (%s) and EN (%s) must be single lines", w.RS, w.EN)
	}
	if w.RS&w.EN != 0 || (w.RS|w.EN)&w.Data() != 0 {
		return fmt.Errorf("pins: overlapping lines RS=%s EN=%s DATA=%s", w.RS, w.EN, w.Data())
	}
	return nil
}
