package confbuf

// Stream adapts a Buffer's read side to the single-byte peek/consume
// protocol expected by an incremental parser.
type Stream struct {
	buf *Buffer
}

// NewStream wraps the read side of buf.
func NewStream(buf *Buffer) *Stream {
	return &Stream{buf: buf}
}

// Peek returns the next byte without consuming it. ok is false when no
// input is available right now; that is not necessarily the end of the
// session, only of the bytes committed so far. Repeated calls without
// an intervening Consume return the same byte.
func (s *Stream) Peek() (c byte, ok bool) {
	region := s.buf.PrepareRead(1)
	if len(region) == 0 {
		return 0, false
	}
	return region[0], true
}

// Consume advances past the byte returned by the preceding Peek. It
// must only be called after a successful Peek.
func (s *Stream) Consume() {
	s.buf.CommitRead(1)
}
