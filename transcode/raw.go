package transcode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// RawSource reads fixed-size frames of 16-bit little-endian mono samples
type RawSource struct {
	r      io.ReadSeeker
	br     *bufio.Reader
	closer io.Closer
	buf    []byte
}

// NewRawSource wraps r. The source does not close r.
func NewRawSource(r io.ReadSeeker) *RawSource {
	return &RawSource{
		r:  r,
		br: bufio.NewReaderSize(r, 64*1024),
	}
}

// ReadFrame fills dst with the next len(dst) samples. It returns io.EOF when
// fewer than len(dst) samples remain; a trailing partial frame is dropped.
func (s *RawSource) ReadFrame(dst []int16) error {
	n := 2 * len(dst)
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	buf := s.buf[:n]

	if _, err := io.ReadFull(s.br, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return nil
}

// Rewind seeks back to the first sample
func (s *RawSource) Rewind() error {
	if _, err := s.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind source: %w", err)
	}
	s.br.Reset(s.r)
	return nil
}

// Close closes the underlying file when the source owns one
func (s *RawSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
