package wav_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/dsp/wav"
)

func TestWriteRead(t *testing.T) {
	tests := []struct {
		numChannels int
		frames      int
		bufferSize  int
	}{
		{numChannels: 1, frames: 10, bufferSize: 4},
		{numChannels: 2, frames: 1000, bufferSize: 256},
		{numChannels: 2, frames: 3, bufferSize: 1024},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		samples := make([]int16, test.frames*test.numChannels)
		for i := range samples {
			samples[i] = int16(i*37 - 1000)
		}

		w, err := wav.Create(path, 44100, test.numChannels)
		require.NoError(t, err)
		require.NoError(t, w.Write(samples, test.frames))
		require.NoError(t, w.Close())

		r, err := wav.Open(path)
		require.NoError(t, err)
		assert.Equal(t, 44100, r.SampleRate())
		assert.Equal(t, test.numChannels, r.NumChannels())

		var got []int16
		buf := make([]int16, test.bufferSize*test.numChannels)
		for {
			n, err := r.Read(buf)
			require.NoError(t, err)
			if n == 0 {
				break
			}
			got = append(got, buf[:n*test.numChannels]...)
		}
		require.NoError(t, r.Close())
		assert.Equal(t, samples, got)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := wav.Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
	_, err = wav.Open(path)
	assert.ErrorIs(t, err, wav.ErrInvalidFile)
}
