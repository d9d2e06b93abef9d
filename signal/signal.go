// Package signal provides conversions of the pipeline boundary. It allows to:
// 	- convert interleaved 16-bit data to non-interleaved floats
//	- convert non-interleaved floats back to interleaved 16-bit data
//
// Conversions don't allocate and can be used in real-time context.
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

// scale16 maps int16 range to [-1, 1).
const scale16 = 1 << 15

// EmptyFloat64 returns an empty buffer of specified dimentions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// Deinterleave16 converts frames of interleaved samples into channels.
// Number of channels is defined by dst, every channel must have at
// least frames length.
func Deinterleave16(src []int16, dst [][]float64, frames int) {
	numChannels := len(dst)
	for c := range dst {
		ch := dst[c][:frames]
		for i := range ch {
			ch[i] = float64(src[i*numChannels+c]) / scale16
		}
	}
}

// Interleave16 converts frames of channels into interleaved samples.
// Values out of [-1, 1) range are clipped.
func Interleave16(src [][]float64, dst []int16, frames int) {
	numChannels := len(src)
	for c := range src {
		ch := src[c][:frames]
		for i, v := range ch {
			dst[i*numChannels+c] = ToInt16(v)
		}
	}
}

// ToInt16 converts float sample to int16 with rounding and clipping.
func ToInt16(v float64) int16 {
	v = math.Round(v * scale16)
	switch {
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// Int16s converts int samples to int16 samples. Values out of int16
// range are clipped.
func Int16s(dst []int16, src []int) {
	for i, v := range src[:len(dst)] {
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		dst[i] = int16(v)
	}
}

// Ints converts int16 samples to int samples.
func Ints(dst []int, src []int16) {
	for i, v := range src[:len(dst)] {
		dst[i] = int(v)
	}
}
