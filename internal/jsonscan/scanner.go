// Package jsonscan scans JSON configuration requests one byte at a
// time through the channel's peek/consume stream, emitting a compacted
// copy into the response buffer as it validates.
package jsonscan

import (
	"fmt"

	"github.com/mejarrett/netmap/internal/confbuf"
)

// SyntaxError reports malformed request input together with the byte
// offset at which scanning stopped.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// scanner walks one JSON value off the input stream, emitting every
// significant byte to out. Whitespace outside strings is dropped.
type scanner struct {
	in  *confbuf.Stream
	out *confbuf.Buffer
	off int
}

func (s *scanner) advance() {
	s.in.Consume()
	s.off++
}

// skipSpace returns the next significant byte without consuming it.
func (s *scanner) skipSpace() (byte, bool) {
	for {
		c, ok := s.in.Peek()
		if !ok {
			return 0, false
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			s.advance()
		default:
			return c, true
		}
	}
}

func (s *scanner) emit(c byte) error {
	_, err := s.out.Write([]byte{c})
	return err
}

func (s *scanner) syntaxf(format string, args ...any) error {
	return &SyntaxError{Offset: s.off, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) value(c byte) error {
	switch {
	case c == '{':
		return s.object()
	case c == '[':
		return s.array()
	case c == '"':
		return s.str()
	case c == '-' || isDigit(c):
		return s.number(c)
	case c == 't':
		return s.literal("true")
	case c == 'f':
		return s.literal("false")
	case c == 'n':
		return s.literal("null")
	default:
		return s.syntaxf("unexpected character %q", c)
	}
}

func (s *scanner) object() error {
	s.advance() // '{'
	if err := s.emit('{'); err != nil {
		return err
	}
	c, ok := s.skipSpace()
	if !ok {
		return s.syntaxf("unterminated object")
	}
	if c == '}' {
		s.advance()
		return s.emit('}')
	}
	for {
		if c != '"' {
			return s.syntaxf("object key must be a string")
		}
		if err := s.str(); err != nil {
			return err
		}
		c, ok = s.skipSpace()
		if !ok {
			return s.syntaxf("unterminated object")
		}
		if c != ':' {
			return s.syntaxf("expected ':' after object key")
		}
		s.advance()
		if err := s.emit(':'); err != nil {
			return err
		}
		c, ok = s.skipSpace()
		if !ok {
			return s.syntaxf("unterminated object")
		}
		if err := s.value(c); err != nil {
			return err
		}
		c, ok = s.skipSpace()
		if !ok {
			return s.syntaxf("unterminated object")
		}
		switch c {
		case ',':
			s.advance()
			if err := s.emit(','); err != nil {
				return err
			}
			c, ok = s.skipSpace()
			if !ok {
				return s.syntaxf("unterminated object")
			}
		case '}':
			s.advance()
			return s.emit('}')
		default:
			return s.syntaxf("expected ',' or '}' in object")
		}
	}
}

func (s *scanner) array() error {
	s.advance() // '['
	if err := s.emit('['); err != nil {
		return err
	}
	c, ok := s.skipSpace()
	if !ok {
		return s.syntaxf("unterminated array")
	}
	if c == ']' {
		s.advance()
		return s.emit(']')
	}
	for {
		if err := s.value(c); err != nil {
			return err
		}
		c, ok = s.skipSpace()
		if !ok {
			return s.syntaxf("unterminated array")
		}
		switch c {
		case ',':
			s.advance()
			if err := s.emit(','); err != nil {
				return err
			}
			c, ok = s.skipSpace()
			if !ok {
				return s.syntaxf("unterminated array")
			}
		case ']':
			s.advance()
			return s.emit(']')
		default:
			return s.syntaxf("expected ',' or ']' in array")
		}
	}
}

func (s *scanner) str() error {
	s.advance() // opening quote
	if err := s.emit('"'); err != nil {
		return err
	}
	for {
		c, ok := s.in.Peek()
		if !ok {
			return s.syntaxf("unterminated string")
		}
		s.advance()
		switch {
		case c == '"':
			return s.emit('"')
		case c == '\\':
			if err := s.escape(); err != nil {
				return err
			}
		case c < 0x20:
			return s.syntaxf("control character in string")
		default:
			if err := s.emit(c); err != nil {
				return err
			}
		}
	}
}

func (s *scanner) escape() error {
	if err := s.emit('\\'); err != nil {
		return err
	}
	c, ok := s.in.Peek()
	if !ok {
		return s.syntaxf("unterminated escape")
	}
	s.advance()
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return s.emit(c)
	case 'u':
		if err := s.emit('u'); err != nil {
			return err
		}
		for i := 0; i < 4; i++ {
			h, ok := s.in.Peek()
			if !ok || !isHex(h) {
				return s.syntaxf("invalid unicode escape")
			}
			s.advance()
			if err := s.emit(h); err != nil {
				return err
			}
		}
		return nil
	default:
		return s.syntaxf("invalid escape character %q", c)
	}
}

func (s *scanner) number(c byte) error {
	if c == '-' {
		s.advance()
		if err := s.emit('-'); err != nil {
			return err
		}
		var ok bool
		c, ok = s.in.Peek()
		if !ok || !isDigit(c) {
			return s.syntaxf("digit expected after '-'")
		}
	}
	s.advance()
	if err := s.emit(c); err != nil {
		return err
	}
	if c == '0' {
		if c, ok := s.in.Peek(); ok && isDigit(c) {
			return s.syntaxf("leading zero in number")
		}
	} else if err := s.digits(); err != nil {
		return err
	}

	if c, ok := s.in.Peek(); ok && c == '.' {
		s.advance()
		if err := s.emit('.'); err != nil {
			return err
		}
		if err := s.requireDigits("digit expected after '.'"); err != nil {
			return err
		}
	}
	if c, ok := s.in.Peek(); ok && (c == 'e' || c == 'E') {
		s.advance()
		if err := s.emit(c); err != nil {
			return err
		}
		if c, ok := s.in.Peek(); ok && (c == '+' || c == '-') {
			s.advance()
			if err := s.emit(c); err != nil {
				return err
			}
		}
		if err := s.requireDigits("digit expected in exponent"); err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) requireDigits(msg string) error {
	c, ok := s.in.Peek()
	if !ok || !isDigit(c) {
		return s.syntaxf("%s", msg)
	}
	return s.digits()
}

func (s *scanner) digits() error {
	for {
		c, ok := s.in.Peek()
		if !ok || !isDigit(c) {
			return nil
		}
		s.advance()
		if err := s.emit(c); err != nil {
			return err
		}
	}
}

func (s *scanner) literal(want string) error {
	for i := 0; i < len(want); i++ {
		c, ok := s.in.Peek()
		if !ok || c != want[i] {
			return s.syntaxf("invalid literal, expected %q", want)
		}
		s.advance()
		if err := s.emit(c); err != nil {
			return err
		}
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
