package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lpcdump.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "layout: compact")
	assert.Contains(t, string(data), "gain_interval: 2821")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "pitch_max_period: 256")
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.s16")
	out := filepath.Join(dir, "speech.f32")

	samples := make([]int16, 8*160)
	for i := range samples {
		samples[i] = int16(6000 * math.Sin(2*math.Pi*float64(i)/64))
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, samples))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	_, err := execute(t, "test", in, out)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(2*4*37*4), info.Size())
}

func TestArgsValidation(t *testing.T) {
	_, err := execute(t, "train", "only-one")
	assert.Error(t, err)
}
