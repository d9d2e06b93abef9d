//go:build portaudio

package portaudio_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/dsp/portaudio"
)

const (
	sampleRate = 44100
	bufferSize = 512
)

func TestSink(t *testing.T) {
	sink, err := portaudio.NewSink(sampleRate, 2, bufferSize)
	require.NoError(t, err)

	frames := sampleRate / 2
	buf := make([]int16, frames*2)
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(2*math.Pi*440*float64(i)/sampleRate) * 8000)
		buf[2*i], buf[2*i+1] = v, v
	}
	assert.NoError(t, sink.Write(buf, frames))
	assert.NoError(t, sink.Close())
}
