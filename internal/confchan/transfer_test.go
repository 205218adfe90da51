package confchan

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesTransfer_PartialMoves(t *testing.T) {
	t.Parallel()

	tr := NewBytesTransfer([]byte("abcdef"))
	require.Equal(t, 6, tr.Resid())

	region := make([]byte, 4)
	n, err := tr.Move(region)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("abcd"), region)
	assert.Equal(t, 2, tr.Resid())

	n, err = tr.Move(region)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("ef"), region[:n])
	assert.Equal(t, 0, tr.Resid())
}

func TestReaderTransfer_EarlyEOFEndsRequest(t *testing.T) {
	t.Parallel()

	// The declared residual is an upper bound; a source that ends
	// early finishes the request instead of failing it.
	tr := NewReaderTransfer(strings.NewReader("abc"), 100)
	region := make([]byte, 10)

	n, err := tr.Move(region)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = tr.Move(region)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, tr.Resid())
}

func TestReaderTransfer_PropagatesReadFault(t *testing.T) {
	t.Parallel()

	tr := NewReaderTransfer(iotest{err: errBoom}, 10)
	_, err := tr.Move(make([]byte, 4))
	assert.ErrorIs(t, err, errBoom)
}

func TestReaderTransfer_NoProgress(t *testing.T) {
	t.Parallel()

	tr := NewReaderTransfer(iotest{}, 10)
	_, err := tr.Move(make([]byte, 4))
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

// iotest returns (0, err) from every read.
type iotest struct {
	err error
}

func (r iotest) Read([]byte) (int, error) { return 0, r.err }

func TestWriterTransfer_CapacityCountsDown(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	tr := NewWriterTransfer(&sink, 5)

	n, err := tr.Move([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, tr.Resid())

	n, err = tr.Move([]byte("de"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, tr.Resid())
	assert.Equal(t, "abcde", sink.String())
}
