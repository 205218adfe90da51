// Package confchan implements the dual-buffer configuration channel: a
// write side accumulating request bytes, a transform draining them
// through a byte stream into a response buffer, and a read side
// delivering that response back to the transport.
package confchan

import (
	"fmt"
	"sync"

	"github.com/mejarrett/netmap/internal/confbuf"
)

// Transform is the opaque parse step run between writing and reading.
// It consumes pending input through the stream and populates the output
// buffer. A nil Transform consumes nothing and produces nothing.
type Transform func(in *confbuf.Stream, out *confbuf.Buffer) error

// Echo copies every pending input byte to the output unchanged. It is
// the identity transform used by loopback configurations and tests.
func Echo(in *confbuf.Stream, out *confbuf.Buffer) error {
	for {
		c, ok := in.Peek()
		if !ok {
			return nil
		}
		if _, err := out.Write([]byte{c}); err != nil {
			return err
		}
		in.Consume()
	}
}

type options struct {
	segSize     int
	maxSegments int
}

// Option adjusts the sizing of a channel's buffers.
type Option func(*options)

// WithSegmentSize sets the default segment capacity for both buffers.
func WithSegmentSize(n int) Option {
	return func(o *options) { o.segSize = n }
}

// WithMaxSegments caps the number of live segments per buffer.
func WithMaxSegments(n int) Option {
	return func(o *options) { o.maxSegments = n }
}

// Channel owns an input and an output buffer and serializes every
// operation on them behind a single lock. Write and Read alternate:
// each Write discards the previous response, each Read runs the
// transform over whatever input is pending before draining the
// response. The lock is held across transfer copies, so the channel is
// not meant for latency-critical paths; configuration I/O is rare and
// low-volume.
type Channel struct {
	mu        sync.Mutex
	input     *confbuf.Buffer
	output    *confbuf.Buffer
	transform Transform
}

// New creates a channel running transform between its buffers.
func New(transform Transform, opts ...Option) *Channel {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Channel{
		input:     confbuf.New(o.segSize, o.maxSegments),
		output:    confbuf.New(o.segSize, o.maxSegments),
		transform: transform,
	}
}

// Write drains the transfer into the input buffer. Any response not yet
// read is discarded first. Capacity exhaustion is returned as-is for
// the transport to report; it is never retried here. A transfer fault
// aborts immediately with every moved byte committed, so a later
// attempt starts from consistent state.
func (c *Channel) Write(t Transfer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.output.Reset()

	for t.Resid() > 0 {
		region, err := c.input.PrepareWrite(t.Resid(), true)
		if err != nil {
			return fmt.Errorf("confchan: write: %w", err)
		}
		n, err := t.Move(region)
		c.input.CommitWrite(n)
		if err != nil {
			return fmt.Errorf("confchan: write transfer: %w", err)
		}
	}
	return nil
}

// Read runs the transform and then drains the output buffer into the
// transfer. An exhausted output ends the request cleanly; it is not an
// error.
func (c *Channel) Read(t Transfer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.runTransform(); err != nil {
		return err
	}

	for t.Resid() > 0 {
		region := c.output.PrepareRead(t.Resid())
		if len(region) == 0 {
			return nil
		}
		n, err := t.Move(region)
		c.output.CommitRead(n)
		if err != nil {
			return fmt.Errorf("confchan: read transfer: %w", err)
		}
	}
	return nil
}

// Close runs the transform once more to flush pending input, then
// releases both buffers unconditionally. Reclamation happens even when
// the flush fails; the flush error is returned.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.runTransform()
	c.input.Reset()
	c.output.Reset()
	return err
}

func (c *Channel) runTransform() error {
	if c.transform == nil {
		return nil
	}
	return c.transform(confbuf.NewStream(c.input), c.output)
}

// InputLen reports the committed, unconsumed request bytes.
func (c *Channel) InputLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Len()
}

// OutputLen reports the undelivered response bytes.
func (c *Channel) OutputLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output.Len()
}

// Segments reports the live segment counts of both buffers.
func (c *Channel) Segments() (in, out int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Segments(), c.output.Segments()
}
