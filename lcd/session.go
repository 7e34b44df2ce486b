// Package lcd drives a 16x2 HD44780 character display over a 4-bit bus made
// of plain output lines: register-select, enable strobe and DB4..DB7.
package lcd

import (
	"strings"
	"time"

	d2r2log "github.com/d2r2/go-logger"

	"github.com/aluedtke7/tune_select/display"
	"github.com/aluedtke7/tune_select/pins"
)

const (
	numChars = 16

	defaultSettle    = time.Millisecond
	defaultStabilize = 50 * time.Millisecond
)

var lg = d2r2log.NewPackageLogger("lcd", d2r2log.InfoLevel)

var blankLine = strings.Repeat(" ", numChars)

// Opts configures a Session. The zero value is usable.
type Opts struct {
	Wiring pins.Wiring // zero value means pins.DefaultWiring

	// Settle is waited before every transfer, Stabilize before and after
	// the init sequence.
	Settle    time.Duration
	Stabilize time.Duration

	// Wait implements both delays; Spin when nil.
	Wait WaitFunc
}

// Session owns the display state: the write throttle and the port the
// controller is wired to. A Session is not safe for concurrent use; wrap it
// with New when several goroutines write to the display.
type Session struct {
	port      pins.Port
	wiring    pins.Wiring
	wait      WaitFunc
	settle    time.Duration
	stabilize time.Duration

	calls     int
	threshold int
}

// NewSession returns an uninitialized session on port. Init must be called
// before anything else.
func NewSession(port pins.Port, opts *Opts) *Session {
	if opts == nil {
		opts = &Opts{}
	}
	s := &Session{
		port:      port,
		wiring:    opts.Wiring,
		wait:      opts.Wait,
		settle:    opts.Settle,
		stabilize: opts.Stabilize,
	}
	if s.wiring == (pins.Wiring{}) {
		s.wiring = pins.DefaultWiring
	}
	if s.wait == nil {
		s.wait = Spin
	}
	if s.settle == 0 {
		s.settle = defaultSettle
	}
	if s.stabilize == 0 {
		s.stabilize = defaultStabilize
	}
	return s
}

// Init resets the controller and sets the write throttle: only every
// (threshold+1)-th WriteLine reaches the display. Calling Init again clears
// the screen.
func (s *Session) Init(threshold int) {
	s.wait(s.stabilize)

	if threshold < 0 {
		threshold = 0
	}
	s.threshold = threshold
	s.calls = 0

	s.port.SetDirection(s.wiring.All())
	s.port.Clear(s.wiring.All())

	s.sendInstruction(FunctionSet)
	s.sendInstruction(DisplayOn)
	s.sendInstruction(ReturnHome)
	s.sendInstruction(ClearDisplay)

	s.wait(s.stabilize)
	lg.Debugf("initialized, throttle %d", threshold)
}

// WriteLine shows the first 16 characters of text on line, padding shorter
// text with blanks. Calls are dropped until the throttle threshold is met.
func (s *Session) WriteLine(line display.Line, text string) {
	if !line.Valid() {
		return
	}
	s.calls++
	if s.calls-1 < s.threshold {
		return
	}
	s.calls = 0

	if line == display.Line2 {
		// Line 2 cannot be addressed until line 1 has been, so line 1 is
		// always addressed first.
		s.sendInstruction(SetAddress(display.Line1, 0))
	}
	s.sendInstruction(SetAddress(line, 0))

	n := 0
	for _, r := range text {
		if n == numChars {
			break
		}
		s.sendCharacter(charCode(r))
		n++
	}
	for ; n < numChars; n++ {
		s.sendCharacter(' ')
	}
	lg.Debugf("%s: %q", line, text)
}

// ClearAll blanks the whole display. It is never throttled.
func (s *Session) ClearAll() {
	s.sendInstruction(ClearDisplay)
}

// ClearLine blanks one line. It counts as a write for the throttle.
func (s *Session) ClearLine(line display.Line) {
	if line.Valid() {
		s.WriteLine(line, blankLine)
	}
}

// Calls returns the number of write attempts since the last performed write.
func (s *Session) Calls() int {
	return s.calls
}

// Threshold returns the throttle threshold set by Init.
func (s *Session) Threshold() int {
	return s.threshold
}

// charCode maps r onto the controller character set; anything outside of
// 8 bits is shown as '?'.
func charCode(r rune) byte {
	if r < 0 || r > 0xFF {
		return '?'
	}
	return byte(r)
}
