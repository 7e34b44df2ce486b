package pins

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestBitsString(t *testing.T) {
	for i, tc := range []struct {
		input    Bits
		expected string
	}{
		{input: 0, expected: "0"},
		{input: Bit0, expected: "BIT0"},
		{input: Bit0 | Bit1, expected: "BIT0|BIT1"},
		{input: DefaultWiring.Data(), expected: "BIT2|BIT3|BIT4|BIT5"},
		{input: Bit7, expected: "BIT7"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.input.String())
		})
	}
}

func TestBitsHas(t *testing.T) {
	b := Bit0 | Bit3
	assert.True(t, b.Has(Bit0))
	assert.True(t, b.Has(Bit0|Bit3))
	assert.False(t, b.Has(Bit0|Bit1))
	assert.True(t, b.Has(0))
}

func TestDefaultWiring(t *testing.T) {
	w := DefaultWiring
	require.NoError(t, w.Validate())
	assert.Equal(t, Bits(0x3C), w.Data())
	assert.Equal(t, Bits(0x3F), w.All())
	assert.Equal(t, Bit2|Bit5, w.Nibble(0x09))
	assert.Equal(t, w.Data(), w.Nibble(0xFF))
}

func TestWiringValidate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		wiring  Wiring
		wantErr bool
	}{
		{"default", DefaultWiring, false},
		{"data on top lines", Wiring{RS: Bit0, EN: Bit1, DataShift: 4}, false},
		{"data past the port", Wiring{RS: Bit0, EN: Bit1, DataShift: 5}, true},
		{"RS missing", Wiring{EN: Bit1, DataShift: 2}, true},
		{"EN on two lines", Wiring{RS: Bit0, EN: Bit1 | Bit6, DataShift: 2}, true},
		{"RS on a data line", Wiring{RS: Bit3, EN: Bit1, DataShift: 2}, true},
		{"RS equals EN", Wiring{RS: Bit0, EN: Bit0, DataShift: 2}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.wiring.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func testLines() ([Width]gpio.PinIO, []*gpiotest.Pin) {
	var lines [Width]gpio.PinIO
	var raw []*gpiotest.Pin
	for i := 0; i < 6; i++ {
		p := &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", 20+i), Num: 20 + i, L: gpio.High}
		lines[i] = p
		raw = append(raw, p)
	}
	return lines, raw
}

func TestGPIOSetClear(t *testing.T) {
	lines, raw := testLines()
	g := NewGPIO(lines)

	g.SetDirection(DefaultWiring.All())
	g.Clear(DefaultWiring.All())
	for _, p := range raw {
		assert.Equal(t, gpio.Low, p.Read(), p.N)
	}
	assert.Equal(t, DefaultWiring.All(), g.Direction())

	g.Set(Bit1 | Bit4)
	assert.Equal(t, gpio.High, raw[1].Read())
	assert.Equal(t, gpio.High, raw[4].Read())
	assert.Equal(t, gpio.Low, raw[0].Read())
	assert.Equal(t, Bit1|Bit4, g.Output())

	g.Clear(Bit1)
	assert.Equal(t, gpio.Low, raw[1].Read())
	assert.Equal(t, Bit4, g.Output())

	// unwired lines are ignored
	g.Set(Bit7)
	assert.Equal(t, Bit4|Bit7, g.Output())
	assert.NoError(t, g.Err())
	assert.Equal(t, "pins.GPIO[GPIO20 GPIO21 GPIO22 GPIO23 GPIO24 GPIO25]", g.String())
}

func TestGPIODirectionKeepsLevel(t *testing.T) {
	lines, raw := testLines()
	g := NewGPIO(lines)
	g.Set(Bit0)
	g.SetDirection(Bit0 | Bit1)
	assert.Equal(t, gpio.High, raw[0].Read())
	assert.Equal(t, gpio.Low, raw[1].Read())
	assert.Equal(t, gpio.PullNoChange, raw[2].P)
}

type failingPin struct {
	*gpiotest.Pin
}

func (f *failingPin) Out(gpio.Level) error {
	return errors.New("bus fault")
}

func TestGPIOKeepsFirstError(t *testing.T) {
	lines, _ := testLines()
	lines[3] = &failingPin{Pin: &gpiotest.Pin{N: "GPIO99"}}
	g := NewGPIO(lines)

	g.Set(Bit0)
	assert.NoError(t, g.Err())
	g.Set(Bit3)
	g.Clear(Bit3)
	require.Error(t, g.Err())
	assert.Contains(t, g.Err().Error(), "GPIO99")
	assert.Contains(t, g.Err().Error(), "bus fault")
}

func TestOpenRejectsBadWiring(t *testing.T) {
	_, err := Open(Wiring{RS: Bit0, EN: Bit0}, Names{})
	assert.Error(t, err)
}
