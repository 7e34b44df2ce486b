package display

// Line selects one of the two rows of a 16x2 character display.
type Line int

const (
	Line1 Line = iota
	Line2
)

// Valid reports whether l addresses an existing row.
func (l Line) Valid() bool {
	return l == Line1 || l == Line2
}

func (l Line) String() string {
	switch l {
	case Line1:
		return "L1"
	case Line2:
		return "L2"
	}
	return "N/A"
}

// Interface definition for the two line character display
type Display interface {
	Clear()
	ClearLine(line Line)
	Close()
	Flush()
	GetCharsPerLine() int
	PrintLine(line Line, text string)
}
