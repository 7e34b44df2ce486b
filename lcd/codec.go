package lcd

import (
	"fmt"

	device "github.com/d2r2/go-hd44780"

	"github.com/aluedtke7/tune_select/display"
)

// Instruction is a control code understood by the display controller.
type Instruction byte

const (
	ClearDisplay = Instruction(device.CMD_Clear_Display)
	ReturnHome   = Instruction(device.CMD_Return_Home)
	DisplayOn    = Instruction(device.CMD_Display_Control | device.OPT_Enable_Display)
	// 4-bit bus, two lines, 5x8 dots
	FunctionSet = Instruction(device.CMD_Function_Set | device.OPT_2_Lines)

	setAddress = Instruction(device.CMD_DDRAM_Set)
)

// line2Offset is the display memory address of the first column of line 2.
const line2Offset = 0x40

// SetAddress positions the address pointer at column col of line.
func SetAddress(line display.Line, col int) Instruction {
	a := setAddress | Instruction(col&0x3F)
	if line == display.Line2 {
		a |= line2Offset
	}
	return a
}

func (i Instruction) String() string {
	switch i {
	case ClearDisplay:
		return "clear-display"
	case ReturnHome:
		return "return-home"
	case DisplayOn:
		return "display-on"
	case FunctionSet:
		return "function-set"
	}
	if i&setAddress != 0 {
		return fmt.Sprintf("set-address(0x%02X)", byte(i&^setAddress))
	}
	return fmt.Sprintf("instruction(0x%02X)", byte(i))
}

// sendInstruction waits for the controller to settle and transfers code in
// instruction mode.
func (s *Session) sendInstruction(code Instruction) {
	s.wait(s.settle)
	s.setMode(false)
	s.sendByte(byte(code))
}

// sendCharacter waits for the controller to settle and transfers c in
// character mode.
func (s *Session) sendCharacter(c byte) {
	s.wait(s.settle)
	s.setMode(true)
	s.sendByte(c)
}
