package server

import (
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/mejarrett/netmap/internal/confchan"
)

// SessionStats records the outcome of one completed exchange.
type SessionStats struct {
	ID       string
	Remote   string
	BytesIn  int64
	BytesOut int64
	Duration time.Duration
	Err      string
}

func (s *Server) handle(conn net.Conn) {
	start := time.Now()
	id := uuid.New().String()
	log := s.log.With("session", id, "remote", conn.RemoteAddr().String())
	defer conn.Close()

	ch := confchan.New(s.transform,
		confchan.WithSegmentSize(s.cfg.GetSegmentSize()),
		confchan.WithMaxSegments(s.cfg.GetMaxSegments()))

	in := &countingReader{r: conn}
	out := &countingWriter{w: conn}

	// The request ends when the client half-closes; capacity
	// exhaustion is not retried here, the client decides.
	var failure error
	if err := ch.Write(confchan.NewReaderTransfer(in, s.cfg.GetMaxRequestBytes())); err != nil {
		log.Warn("request rejected", "err", err)
		failure = err
		// Drain what the client already sent so closing the socket
		// does not reset the connection under its reply read.
		_, _ = io.Copy(io.Discard, conn)
	} else if err := ch.Read(confchan.NewWriterTransfer(out, s.cfg.GetMaxRequestBytes())); err != nil {
		log.Warn("response failed", "err", err)
		failure = err
	}

	if err := ch.Close(); err != nil {
		log.Debug("channel teardown", "err", err)
	}

	stats := SessionStats{
		ID:       id,
		Remote:   conn.RemoteAddr().String(),
		BytesIn:  in.n,
		BytesOut: out.n,
		Duration: time.Since(start),
	}
	if failure != nil {
		stats.Err = failure.Error()
	}
	s.history.Add(id, stats)
	log.Debug("session done",
		"bytes_in", stats.BytesIn,
		"bytes_out", stats.BytesOut,
		"duration", stats.Duration,
	)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
