package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/dsp/signal"
)

func TestDeinterleave16(t *testing.T) {
	tests := []struct {
		ints        []int16
		numChannels int
		frames      int
		expected    [][]float64
	}{
		{
			ints:        []int16{16384, -16384, 0, math.MinInt16},
			numChannels: 2,
			frames:      2,
			expected: [][]float64{
				{0.5, 0},
				{-0.5, -1},
			},
		},
		{
			ints:        []int16{1, 2, 3, 4, 5, 6},
			numChannels: 3,
			frames:      1,
			expected: [][]float64{
				{1.0 / 32768, 0},
				{2.0 / 32768, 0},
				{3.0 / 32768, 0},
			},
		},
	}

	for _, test := range tests {
		dst := signal.EmptyFloat64(test.numChannels, 2)
		signal.Deinterleave16(test.ints, dst, test.frames)
		assert.Equal(t, signal.Float64(test.expected), dst)
	}
}

func TestInterleave16(t *testing.T) {
	src := [][]float64{
		{0.5, 1.5, -2},
		{-0.5, 0.99999, 0.2},
	}
	dst := make([]int16, 6)
	signal.Interleave16(src, dst, 3)
	assert.Equal(t, []int16{16384, -16384, math.MaxInt16, 32767, math.MinInt16, 6554}, dst)

	// only requested frames are written.
	dst = make([]int16, 6)
	signal.Interleave16(src, dst, 1)
	assert.Equal(t, []int16{16384, -16384, 0, 0, 0, 0}, dst)
}

func TestRoundTrip(t *testing.T) {
	ints := []int16{math.MinInt16, -12345, -1, 0, 1, 12345, math.MaxInt16, 7}
	floats := signal.EmptyFloat64(2, 4)
	signal.Deinterleave16(ints, floats, 4)
	result := make([]int16, len(ints))
	signal.Interleave16(floats, result, 4)
	assert.Equal(t, ints, result)
}

func TestIntConversions(t *testing.T) {
	i16 := make([]int16, 4)
	signal.Int16s(i16, []int{1, -1, 40000, -40000})
	assert.Equal(t, []int16{1, -1, math.MaxInt16, math.MinInt16}, i16)
	ints := make([]int, 4)
	signal.Ints(ints, i16)
	assert.Equal(t, []int{1, -1, math.MaxInt16, math.MinInt16}, ints)
}

func TestFloat64(t *testing.T) {
	f := signal.EmptyFloat64(3, 10)
	assert.Equal(t, 3, f.NumChannels())
	assert.Equal(t, 10, f.Size())
	assert.Equal(t, 0, signal.Float64(nil).Size())
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(48000, 48000))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
}
