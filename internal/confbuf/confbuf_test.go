package confbuf

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAll(t *testing.T, b *Buffer, p []byte) {
	t.Helper()
	n, err := b.Write(p)
	require.NoError(t, err)
	require.Equal(t, len(p), n)
}

func readAll(b *Buffer) []byte {
	var out bytes.Buffer
	for {
		region := b.PrepareRead(1 << 20)
		if len(region) == 0 {
			return out.Bytes()
		}
		out.Write(region)
		b.CommitRead(len(region))
	}
}

func TestBuffer_RoundTripFIFO(t *testing.T) {
	t.Parallel()

	b := New(64, 8)
	rng := rand.New(rand.NewSource(1))

	var sent bytes.Buffer
	for sent.Len() < 64*8-32 {
		chunk := make([]byte, 1+rng.Intn(48))
		rng.Read(chunk)
		writeAll(t, b, chunk)
		sent.Write(chunk)
	}

	require.Equal(t, sent.Len(), b.Len())
	require.Equal(t, sent.Bytes(), readAll(b))
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_PrepareWriteNeverExceedsRequest(t *testing.T) {
	t.Parallel()

	b := New(16, 4)
	for _, req := range []int{1, 3, 15, 16, 17, 200} {
		region, err := b.PrepareWrite(req, true)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(region), req)
		assert.NotEmpty(t, region)
		b.CommitWrite(1) // commit a single byte, leave the rest free
	}
}

func TestBuffer_LargeRequestGetsDedicatedSegment(t *testing.T) {
	t.Parallel()

	// A caller that cannot accept a short region gets a segment sized
	// to its request even beyond the default segment size.
	b := New(16, 4)
	region, err := b.PrepareWrite(100, false)
	require.NoError(t, err)
	assert.Len(t, region, 100)
}

func TestBuffer_SegmentReleasedOnDrain(t *testing.T) {
	t.Parallel()

	b := New(4, 4)
	writeAll(t, b, []byte("abcdefgh")) // two full segments
	require.Equal(t, 2, b.Segments())

	region := b.PrepareRead(8)
	require.Equal(t, []byte("abcd"), region)
	b.CommitRead(4)
	assert.Equal(t, 1, b.Segments(), "drained segment must be released on commit")

	region = b.PrepareRead(8)
	require.Equal(t, []byte("efgh"), region)
	b.CommitRead(4)
	assert.Equal(t, 0, b.Segments())
	assert.Nil(t, b.PrepareRead(1))
}

func TestBuffer_SpillAcrossSegments(t *testing.T) {
	t.Parallel()

	// 4-byte segments, limit 2. "AB" fits in segment one; "CDEF" fills
	// it and spills into a second segment. The boundary stays visible
	// to the reader: one region of 4, then one of 2.
	b := New(4, 2)
	writeAll(t, b, []byte("AB"))
	writeAll(t, b, []byte("CDEF"))
	require.Equal(t, 2, b.Segments())
	require.Equal(t, 6, b.Len())

	region := b.PrepareRead(16)
	require.Equal(t, []byte("ABCD"), region)
	b.CommitRead(len(region))

	region = b.PrepareRead(16)
	require.Equal(t, []byte("EF"), region)
	b.CommitRead(len(region))

	assert.Nil(t, b.PrepareRead(16))
}

func TestBuffer_TruncatedTailReadShortNotSkipped(t *testing.T) {
	t.Parallel()

	// A writer that insists on a contiguous region forces the old tail
	// closed at its write offset. The two committed bytes are still
	// read first, short, before the new segment.
	b := New(4, 2)
	region, err := b.PrepareWrite(2, false)
	require.NoError(t, err)
	copy(region, "AB")
	b.CommitWrite(2)

	region, err = b.PrepareWrite(4, false)
	require.NoError(t, err)
	require.Len(t, region, 4)
	copy(region, "CDEF")
	b.CommitWrite(4)

	require.Equal(t, []byte("AB"), b.PrepareRead(16))
	b.CommitRead(2)
	require.Equal(t, []byte("CDEF"), b.PrepareRead(16))
	b.CommitRead(4)
	assert.Equal(t, 0, b.Segments())
}

func TestBuffer_CapacityExhausted(t *testing.T) {
	t.Parallel()

	// Nine bytes into two 4-byte segments: eight commit, the ninth
	// fails, and the buffer stays consistent for inspection.
	b := New(4, 2)
	n, err := b.Write([]byte("123456789"))
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, 8, n)
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, 2, b.Segments())

	require.Equal(t, []byte("12345678"), readAll(b))

	// Fully drained, so the chain is gone and writes work again.
	assert.Equal(t, 0, b.Segments())
	writeAll(t, b, []byte("x"))
	require.Equal(t, []byte("x"), readAll(b))
}

func TestBuffer_PrepareWriteFailsAtLimitWithoutTail(t *testing.T) {
	t.Parallel()

	b := New(4, 1)
	writeAll(t, b, []byte("full"))
	_, err := b.PrepareWrite(1, true)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestBuffer_Reset(t *testing.T) {
	t.Parallel()

	b := New(4, 2)
	writeAll(t, b, []byte("12345"))
	require.Equal(t, 2, b.Segments())

	b.Reset()
	assert.Equal(t, 0, b.Segments())
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.PrepareRead(1))

	// Reusable after reset with the same sizing.
	writeAll(t, b, []byte("abc"))
	assert.Equal(t, []byte("abc"), readAll(b))
}

func TestBuffer_DefaultSizing(t *testing.T) {
	t.Parallel()

	b := New(0, 0)
	region, err := b.PrepareWrite(DefaultSegmentSize+1, true)
	require.NoError(t, err)
	assert.Len(t, region, DefaultSegmentSize)

	for i := 0; i < DefaultMaxSegments-1; i++ {
		b.CommitWrite(DefaultSegmentSize)
		_, err = b.PrepareWrite(DefaultSegmentSize, true)
		require.NoError(t, err)
	}
	b.CommitWrite(DefaultSegmentSize)
	_, err = b.PrepareWrite(1, true)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestBuffer_ReaderWriter(t *testing.T) {
	t.Parallel()

	b := New(8, 4)
	writeAll(t, b, []byte("hello world"))

	out, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), out)

	_, err = b.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuffer_ReadEmptyDestination(t *testing.T) {
	t.Parallel()

	b := New(8, 4)
	writeAll(t, b, []byte("x"))
	n, err := b.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, b.Len())
}
