package jsonscan

import (
	"errors"
	"fmt"

	"github.com/mejarrett/netmap/internal/confbuf"
)

// Compact is the channel transform for JSON requests. It reads one
// value off the input stream, validates it, and writes the compacted
// form followed by a newline into the response buffer. Bytes after the
// first value stay unconsumed for the next pass. A syntax error is
// answered with a JSON error object instead of a reply; buffer
// exhaustion propagates so the channel reports it as backpressure.
func Compact(in *confbuf.Stream, out *confbuf.Buffer) error {
	s := &scanner{in: in, out: out}
	c, ok := s.skipSpace()
	if !ok {
		// Nothing pending; an empty request produces an empty reply.
		return nil
	}

	err := s.value(c)
	if err == nil {
		err = s.emit('\n')
	}
	if err == nil {
		return nil
	}

	var syn *SyntaxError
	if errors.As(err, &syn) {
		return errorReply(out, syn)
	}
	return err
}

// errorReply replaces whatever was emitted so far with a well-formed
// error object the client can parse.
func errorReply(out *confbuf.Buffer, syn *SyntaxError) error {
	out.Reset()
	_, err := fmt.Fprintf(out, "{\"error\":%q}\n", syn.Error())
	return err
}
