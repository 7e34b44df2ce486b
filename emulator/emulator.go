// Package emulator simulates an HD44780 controller wired to a 4-bit bus. It
// implements pins.Port, latches the data lines on every falling edge of the
// enable strobe and keeps the resulting display memory, so the driver can be
// exercised without hardware.
package emulator

import (
	"bytes"
	"fmt"

	device "github.com/d2r2/go-hd44780"

	"github.com/aluedtke7/tune_select/pins"
)

const (
	cols     = 16
	rowWidth = 40
	line2    = 0x40
)

const (
	cmdClear       = byte(device.CMD_Clear_Display)
	cmdHome        = byte(device.CMD_Return_Home)
	cmdEntryMode   = byte(device.CMD_Entry_Mode)
	cmdControl     = byte(device.CMD_Display_Control)
	cmdShift       = byte(device.CMD_Cursor_Display_Shift)
	cmdFunctionSet = byte(device.CMD_Function_Set)
	cmdCGRAM       = byte(device.CMD_CGRAM_Set)
	cmdDDRAM       = byte(device.CMD_DDRAM_Set)

	optDisplayOn = byte(device.OPT_Enable_Display)
	optTwoLines  = byte(device.OPT_2_Lines)
)

// Transfer is one byte received by the controller.
type Transfer struct {
	RS    bool // true for character data, false for an instruction
	Value byte
}

func (t Transfer) String() string {
	if t.RS {
		return fmt.Sprintf("D(%q)", rune(t.Value))
	}
	return fmt.Sprintf("I(0x%02X)", t.Value)
}

// Controller is a simulated display module.
type Controller struct {
	// Quirk makes the controller ignore line 2 addressing until line 1 has
	// been addressed since the last function set, like the modules this
	// driver was written for.
	Quirk bool

	wiring pins.Wiring
	dir    pins.Bits
	out    pins.Bits

	high      byte
	half      bool
	nibbles   int
	transfers []Transfer

	ddram     [2][rowWidth]byte
	addr      byte
	twoLines  bool
	displayOn bool
	line1Seen bool
}

// New returns a blank controller listening on the lines given by w.
func New(w pins.Wiring) *Controller {
	c := &Controller{wiring: w}
	c.clear()
	return c
}

func (c *Controller) SetDirection(out pins.Bits) {
	c.dir = out
}

func (c *Controller) Set(b pins.Bits) {
	c.update(c.out | b)
}

func (c *Controller) Clear(b pins.Bits) {
	c.update(c.out &^ b)
}

func (c *Controller) update(next pins.Bits) {
	prev := c.out
	c.out = next
	if !c.dir.Has(c.wiring.EN) {
		return
	}
	if prev&c.wiring.EN != 0 && next&c.wiring.EN == 0 {
		c.latch(byte((prev & c.wiring.Data()) >> c.wiring.DataShift))
	}
}

func (c *Controller) latch(nibble byte) {
	c.nibbles++
	if !c.half {
		c.high = nibble
		c.half = true
		return
	}
	c.half = false
	t := Transfer{RS: c.out&c.wiring.RS != 0, Value: c.high<<4 | nibble}
	c.transfers = append(c.transfers, t)
	c.execute(t)
}

func (c *Controller) execute(t Transfer) {
	if t.RS {
		row := 0
		if c.addr >= line2 {
			row = 1
		}
		// addresses past the end of a row do not exist
		if col := c.addr % line2; col < rowWidth {
			c.ddram[row][col] = t.Value
		}
		c.advance()
		return
	}
	v := t.Value
	switch {
	case v&cmdDDRAM != 0:
		a := v &^ cmdDDRAM
		if c.Quirk && a >= line2 && !c.line1Seen {
			return
		}
		if a < line2 {
			c.line1Seen = true
		}
		c.addr = a
	case v&cmdCGRAM != 0:
		// custom characters are not emulated
	case v&cmdFunctionSet != 0:
		c.twoLines = v&optTwoLines != 0
		c.line1Seen = false
	case v&cmdShift != 0:
	case v&cmdControl != 0:
		c.displayOn = v&optDisplayOn != 0
	case v&cmdEntryMode != 0:
	case v&cmdHome != 0:
		c.addr = 0
	case v == cmdClear:
		c.clear()
	}
}

func (c *Controller) advance() {
	c.addr++
	switch c.addr {
	case rowWidth:
		c.addr = line2
	case line2 + rowWidth, 2 * line2:
		c.addr = 0
	}
}

func (c *Controller) clear() {
	for r := range c.ddram {
		for i := range c.ddram[r] {
			c.ddram[r][i] = ' '
		}
	}
	c.addr = 0
}

// Line returns the 16 visible characters of row 0 or 1.
func (c *Controller) Line(row int) string {
	if row < 0 || row > 1 {
		return ""
	}
	return string(c.ddram[row][:cols])
}

// Screen returns both visible rows separated by a newline.
func (c *Controller) Screen() string {
	return c.Line(0) + "\n" + c.Line(1)
}

// Transfers returns every byte received since the last Reset.
func (c *Controller) Transfers() []Transfer {
	return c.transfers
}

// Characters returns the character data received since the last Reset.
func (c *Controller) Characters() string {
	var b bytes.Buffer
	for _, t := range c.transfers {
		if t.RS {
			b.WriteByte(t.Value)
		}
	}
	return b.String()
}

// Instructions returns the instruction bytes received since the last Reset.
func (c *Controller) Instructions() []byte {
	var out []byte
	for _, t := range c.transfers {
		if !t.RS {
			out = append(out, t.Value)
		}
	}
	return out
}

// Nibbles returns the number of enable strobes seen since the last Reset.
func (c *Controller) Nibbles() int {
	return c.nibbles
}

// Address returns the display memory address counter.
func (c *Controller) Address() byte {
	return c.addr
}

// DisplayOn reports whether the last display control turned the display on.
func (c *Controller) DisplayOn() bool {
	return c.displayOn
}

// TwoLines reports whether the last function set selected two line mode.
func (c *Controller) TwoLines() bool {
	return c.twoLines
}

// Output returns the current level of every line.
func (c *Controller) Output() pins.Bits {
	return c.out
}

// Direction returns the lines configured as outputs.
func (c *Controller) Direction() pins.Bits {
	return c.dir
}

// Reset forgets the recorded transfers without touching the display memory.
func (c *Controller) Reset() {
	c.transfers = nil
	c.nibbles = 0
}

var _ pins.Port = &Controller{}
