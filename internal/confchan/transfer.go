package confchan

import "io"

// Transfer is the channel's view of the transport layer: a request to
// move a bounded, possibly-partial number of bytes between
// caller-supplied memory and a buffer region.
type Transfer interface {
	// Resid reports the number of outstanding bytes in the request.
	Resid() int
	// Move copies up to len(region) bytes into or out of region and
	// reports the exact count moved. A returned error is a transfer
	// fault; bytes reported as moved are valid either way.
	Move(region []byte) (int, error)
}

type bytesTransfer struct {
	data []byte
}

// NewBytesTransfer builds an inbound transfer sourcing from p. Each
// Move fills the offered region from the front of the remaining data.
func NewBytesTransfer(p []byte) Transfer {
	return &bytesTransfer{data: p}
}

func (t *bytesTransfer) Resid() int {
	return len(t.data)
}

func (t *bytesTransfer) Move(region []byte) (int, error) {
	n := copy(region, t.data)
	t.data = t.data[n:]
	return n, nil
}

type readerTransfer struct {
	r     io.Reader
	resid int
}

// NewReaderTransfer builds an inbound transfer sourcing up to resid
// bytes from r. A source that ends early simply ends the request; only
// read faults surface as errors.
func NewReaderTransfer(r io.Reader, resid int) Transfer {
	return &readerTransfer{r: r, resid: resid}
}

func (t *readerTransfer) Resid() int {
	return t.resid
}

func (t *readerTransfer) Move(region []byte) (int, error) {
	n, err := t.r.Read(region)
	t.resid -= n
	switch {
	case err == io.EOF:
		t.resid = 0
		return n, nil
	case err != nil:
		return n, err
	case n == 0:
		return 0, io.ErrNoProgress
	}
	return n, nil
}

type writerTransfer struct {
	w     io.Writer
	resid int
}

// NewWriterTransfer builds an outbound transfer draining buffer regions
// into w, accepting at most capacity bytes.
func NewWriterTransfer(w io.Writer, capacity int) Transfer {
	return &writerTransfer{w: w, resid: capacity}
}

func (t *writerTransfer) Resid() int {
	return t.resid
}

func (t *writerTransfer) Move(region []byte) (int, error) {
	n, err := t.w.Write(region)
	t.resid -= n
	return n, err
}
