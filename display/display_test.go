package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	for _, tc := range []struct {
		line  Line
		valid bool
		name  string
	}{
		{line: Line1, valid: true, name: "L1"},
		{line: Line2, valid: true, name: "L2"},
		{line: Line(2), valid: false, name: "N/A"},
		{line: Line(-1), valid: false, name: "N/A"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.line.Valid())
			assert.Equal(t, tc.name, tc.line.String())
		})
	}
}
