package lcd

import (
	"sync"

	"github.com/aluedtke7/tune_select/display"
	"github.com/aluedtke7/tune_select/pins"
)

const (
	cmdClear = iota
	cmdClearLine
	cmdPrintline
	cmdFlush
)

type command struct {
	cmd      int
	lineNum  display.Line
	lineText string
	flushed  chan struct{}
}

// lcd serializes all display access through one handler goroutine, since
// interleaved nibble transfers would corrupt the bus.
type lcd struct {
	session   *Session
	port      pins.Port
	cmdChan   chan command
	done      chan struct{}
	closeOnce sync.Once
	portErr   error
}

func (l *lcd) commandHandler() {
	defer close(l.done)
	for c := range l.cmdChan {
		switch c.cmd {
		case cmdClear:
			l.session.ClearAll()
		case cmdClearLine:
			l.session.ClearLine(c.lineNum)
		case cmdPrintline:
			l.session.WriteLine(c.lineNum, c.lineText)
		case cmdFlush:
			close(c.flushed)
		}
		l.checkPort()
	}
}

// checkPort logs the first failure reported by a port that tracks them.
func (l *lcd) checkPort() {
	p, ok := l.port.(interface{ Err() error })
	if !ok || l.portErr != nil {
		return
	}
	if err := p.Err(); err != nil {
		l.portErr = err
		lg.Error(err.Error())
	}
}

func (l *lcd) Clear() {
	l.cmdChan <- command{
		cmd: cmdClear,
	}
}

func (l *lcd) ClearLine(line display.Line) {
	l.cmdChan <- command{
		cmd:     cmdClearLine,
		lineNum: line,
	}
}

func (l *lcd) PrintLine(line display.Line, text string) {
	if !line.Valid() {
		lg.Warn("LCD display row is out of bounds: ", int(line))
		return
	}
	l.cmdChan <- command{
		cmd:      cmdPrintline,
		lineNum:  line,
		lineText: text,
	}
}

// Flush returns once every command sent before it has reached the port.
func (l *lcd) Flush() {
	c := command{
		cmd:     cmdFlush,
		flushed: make(chan struct{}),
	}
	l.cmdChan <- c
	<-c.flushed
}

// Close waits for pending commands and releases the port when it supports
// it. The display must not be used afterwards.
func (l *lcd) Close() {
	l.closeOnce.Do(func() {
		close(l.cmdChan)
		<-l.done
		if h, ok := l.port.(interface{ Halt() error }); ok {
			if err := h.Halt(); err != nil {
				lg.Error(err.Error())
			}
		}
	})
}

func (l *lcd) GetCharsPerLine() int {
	return numChars
}

/*
New initializes the display on port with the given write throttle and
returns it ready for use from any goroutine.
*/
func New(port pins.Port, threshold int, opts *Opts) display.Display {
	lg.Debug("LCD initializing...")
	l := &lcd{
		session: NewSession(port, opts),
		port:    port,
		cmdChan: make(chan command),
		done:    make(chan struct{}),
	}
	l.session.Init(threshold)
	l.checkPort()

	go l.commandHandler()
	return l
}
