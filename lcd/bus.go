package lcd

// sendNibble latches the low 4 bits of v into the controller.
func (s *Session) sendNibble(v byte) {
	s.port.Set(s.wiring.EN)
	s.port.Set(s.wiring.Nibble(v))
	s.port.Clear(s.wiring.EN)
	s.port.Clear(s.wiring.Data())
}

// sendByte transfers b as two nibbles, high one first. Only DB4..DB7 are
// wired, so every byte takes two strobes.
func (s *Session) sendByte(b byte) {
	s.sendNibble(b >> 4)
	s.sendNibble(b & 0x0F)
}

// setMode selects instruction (RS low) or character (RS high) transfers.
func (s *Session) setMode(data bool) {
	if data {
		s.port.Set(s.wiring.RS)
	} else {
		s.port.Clear(s.wiring.RS)
	}
}
