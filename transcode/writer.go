package transcode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// FeatureWriter writes fixed-width records of little-endian float32 values
type FeatureWriter struct {
	w     *bufio.Writer
	width int
	buf   []byte
	count int64
}

// NewFeatureWriter creates a writer of width-value records
func NewFeatureWriter(w io.Writer, width int) *FeatureWriter {
	return &FeatureWriter{
		w:     bufio.NewWriter(w),
		width: width,
		buf:   make([]byte, 4*width),
	}
}

// Write writes one record. len(v) must equal the record width.
func (fw *FeatureWriter) Write(v []float64) error {
	if len(v) != fw.width {
		return fmt.Errorf("record of %d values, want %d", len(v), fw.width)
	}
	for i, x := range v {
		binary.LittleEndian.PutUint32(fw.buf[4*i:], math.Float32bits(float32(x)))
	}
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("failed to write feature record: %w", err)
	}
	fw.count++
	return nil
}

// Records returns the number of records written
func (fw *FeatureWriter) Records() int64 {
	return fw.count
}

// Flush writes any buffered data to the underlying writer
func (fw *FeatureWriter) Flush() error {
	return fw.w.Flush()
}

// ReadFeatures decodes a stream written by FeatureWriter
func ReadFeatures(r io.Reader, width int) ([][]float32, error) {
	var out [][]float32
	buf := make([]byte, 4*width)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("truncated feature record: %w", err)
		}
		rec := make([]float32, width)
		for i := range rec {
			rec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
		out = append(out, rec)
	}
}
