// Package confbuf implements the bounded chained-chunk byte buffers
// that back a configuration channel. A Buffer accumulates bytes written
// in arbitrary slices into a chain of fixed-size segments and serves
// them back in order, releasing each segment as soon as it is drained.
//
// The prepare/commit split lets callers copy directly between their own
// memory and buffer storage without an intermediate copy: PrepareWrite
// and PrepareRead hand out a region, and the matching Commit call
// acknowledges how many bytes were actually moved, which may be fewer
// than the region offered.
package confbuf

import (
	"errors"
	"io"
)

// Default sizing for a buffer chain. Worst-case memory per buffer is
// bounded by DefaultSegmentSize * DefaultMaxSegments.
const (
	DefaultSegmentSize = 1024
	DefaultMaxSegments = 4
)

// ErrNoSpace is returned by PrepareWrite when the segment limit is
// reached. Callers treat it as backpressure and decide whether to retry
// later; the buffer never retries internally.
var ErrNoSpace = errors.New("confbuf: segment limit reached")

// segment is one link of a buffer chain. Its allocated capacity is
// fixed for its lifetime; size is the logical size, shrunk at most once
// when the write side abandons the segment with trailing capacity
// unused. Readers then see the segment short instead of reading
// uncommitted bytes.
type segment struct {
	data []byte
	size int
	next *segment
}

// Buffer is a bounded FIFO byte queue over a chain of segments with
// independent read and write cursors. The zero value is not usable;
// construct with New. A Buffer is not safe for concurrent use.
type Buffer struct {
	head     *segment // segment currently being read, owns the chain
	tail     *segment // segment currently being written, aliases into the chain
	readOff  int
	writeOff int
	segments int

	segSize     int
	maxSegments int
}

// New creates an empty buffer. Non-positive arguments fall back to
// DefaultSegmentSize and DefaultMaxSegments.
func New(segSize, maxSegments int) *Buffer {
	if segSize <= 0 {
		segSize = DefaultSegmentSize
	}
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	return &Buffer{segSize: segSize, maxSegments: maxSegments}
}

// PrepareWrite returns a writable region of up to req bytes. The caller
// must follow up with CommitWrite for the bytes it actually filled in.
//
// When the current tail segment has free space but less than req,
// allowShort decides the outcome: a willing caller gets the short free
// suffix, otherwise the tail is closed at its current write offset and
// a fresh segment sized max(req, default) is chained on. Allocation
// fails with ErrNoSpace once the segment limit is reached.
func (b *Buffer) PrepareWrite(req int, allowShort bool) ([]byte, error) {
	free := 0
	if b.tail != nil {
		free = len(b.tail.data) - b.writeOff
	}
	if free > 0 && (free >= req || allowShort) {
		if free > req {
			free = req
		}
		return b.tail.data[b.writeOff : b.writeOff+free], nil
	}

	if b.segments >= b.maxSegments {
		return nil, ErrNoSpace
	}
	size := b.segSize
	if req > size && !allowShort {
		size = req
	}
	seg := &segment{data: make([]byte, size), size: size}
	if b.tail != nil {
		// Close the old tail: truncating its logical size to the
		// write offset keeps the unused suffix out of the read
		// path while preserving FIFO order.
		b.tail.size = b.writeOff
		b.tail.next = seg
	}
	b.tail = seg
	b.writeOff = 0
	if b.head == nil {
		b.head = seg
	}
	b.segments++

	if size > req {
		size = req
	}
	return seg.data[:size], nil
}

// CommitWrite publishes n bytes of the region returned by the last
// PrepareWrite, making them readable.
func (b *Buffer) CommitWrite(n int) {
	b.writeOff += n
}

// PrepareRead returns the next readable region, at most req bytes and
// never spanning a segment boundary. An empty result means nothing is
// readable right now; it is not a failure. The caller acknowledges
// consumed bytes with CommitRead.
func (b *Buffer) PrepareRead(req int) []byte {
	if req <= 0 {
		return nil
	}
	seg, off := b.head, b.readOff
	for seg != nil {
		if avail := b.readableIn(seg) - off; avail > 0 {
			if avail > req {
				avail = req
			}
			return seg.data[off : off+avail]
		}
		seg, off = seg.next, 0
	}
	return nil
}

// CommitRead consumes n bytes of the region returned by the last
// PrepareRead. A segment is released on the commit that drains it.
func (b *Buffer) CommitRead(n int) {
	b.release()
	b.readOff += n
	b.release()
}

// release frees fully drained segments at the front of the chain. At
// most one drained segment can precede readable data (an old tail
// truncated to exactly the read offset), but the loop costs nothing.
func (b *Buffer) release() {
	for b.head != nil && b.readOff == b.readableIn(b.head) {
		if b.head == b.tail {
			if b.writeOff < len(b.tail.data) {
				// Open tail, still writable; keep it.
				return
			}
			b.head, b.tail = nil, nil
			b.readOff, b.writeOff = 0, 0
			b.segments = 0
			return
		}
		next := b.head.next
		b.head.next = nil
		b.head = next
		b.readOff = 0
		b.segments--
	}
}

// readableIn reports the logical size of seg as seen by the read side:
// only committed bytes of an open tail are readable.
func (b *Buffer) readableIn(seg *segment) int {
	if seg == b.tail {
		return b.writeOff
	}
	return seg.size
}

// Len reports the number of committed, unread bytes.
func (b *Buffer) Len() int {
	total := 0
	seg, off := b.head, b.readOff
	for seg != nil {
		total += b.readableIn(seg) - off
		seg, off = seg.next, 0
	}
	return total
}

// Segments reports the number of live segments in the chain.
func (b *Buffer) Segments() int {
	return b.segments
}

// Reset releases every segment unconditionally, discarding unread
// bytes. The buffer is empty and reusable afterwards.
func (b *Buffer) Reset() {
	*b = Buffer{segSize: b.segSize, maxSegments: b.maxSegments}
}

// Write appends p to the buffer, growing the chain as needed. It
// implements io.Writer; a short write with ErrNoSpace is returned once
// the segment limit is reached.
func (b *Buffer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		region, err := b.PrepareWrite(len(p)-written, true)
		if err != nil {
			return written, err
		}
		n := copy(region, p[written:])
		b.CommitWrite(n)
		written += n
	}
	return written, nil
}

// Read drains up to len(p) bytes into p. It implements io.Reader and
// reports io.EOF when no committed bytes remain.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	region := b.PrepareRead(len(p))
	if len(region) == 0 {
		return 0, io.EOF
	}
	n := copy(p, region)
	b.CommitRead(n)
	return n, nil
}
