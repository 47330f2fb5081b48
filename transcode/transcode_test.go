package transcode

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16(samples ...int16) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func TestRawSourceFrames(t *testing.T) {
	src := NewRawSource(bytes.NewReader(s16(1, -2, 3, 4, 5, -32768, 7)))
	frame := make([]int16, 3)

	require.NoError(t, src.ReadFrame(frame))
	assert.Equal(t, []int16{1, -2, 3}, frame)
	require.NoError(t, src.ReadFrame(frame))
	assert.Equal(t, []int16{4, 5, -32768}, frame)

	// one sample left: partial frames are dropped
	assert.ErrorIs(t, src.ReadFrame(frame), io.EOF)

	require.NoError(t, src.Rewind())
	require.NoError(t, src.ReadFrame(frame))
	assert.Equal(t, []int16{1, -2, 3}, frame)
	assert.NoError(t, src.Close())
}

func TestRawSourceEmpty(t *testing.T) {
	src := NewRawSource(bytes.NewReader(nil))
	assert.ErrorIs(t, src.ReadFrame(make([]int16, 4)), io.EOF)
}

func TestFeatureWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFeatureWriter(&buf, 3)

	require.NoError(t, fw.Write([]float64{1, -0.5, 3.25}))
	require.NoError(t, fw.Write([]float64{0, 2, -8}))
	assert.Error(t, fw.Write([]float64{1}))
	require.NoError(t, fw.Flush())
	assert.Equal(t, int64(2), fw.Records())
	assert.Equal(t, 2*3*4, buf.Len())

	// little-endian float32 1.0
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf.Bytes()[:4])

	recs, err := ReadFeatures(bytes.NewReader(buf.Bytes()), 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, -0.5, 3.25}, {0, 2, -8}}, recs)

	_, err = ReadFeatures(bytes.NewReader(buf.Bytes()[:5]), 3)
	assert.Error(t, err)
}

func TestIsRaw(t *testing.T) {
	assert.True(t, IsRaw("speech.s16"))
	assert.True(t, IsRaw("/data/a.RAW"))
	assert.False(t, IsRaw("speech.wav"))
	assert.False(t, IsRaw("noext"))
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(nil)
	args := d.buildFFmpegArgs()
	assert.Equal(t, []string{"-f", "s16le", "-acodec", "pcm_s16le", "-ac", "1", "-ar", "16000", "-v", "error"}, args)
	assert.NoError(t, d.ValidateConfig())
}
