// Package wav reads and writes 16-bit interleaved samples of wav files.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/dsp/signal"
)

const (
	bitDepth = 16
	// pcmFormat is the wav audio format of integer samples.
	pcmFormat = 1
)

var (
	// ErrUnsupportedBitDepth is returned when file is not 16-bit.
	ErrUnsupportedBitDepth = errors.New("only 16 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

type (
	// Reader reads samples from wav file.
	Reader struct {
		file    *os.File
		decoder *wav.Decoder
		ib      *audio.IntBuffer
	}

	// Writer writes samples to wav file.
	Writer struct {
		file    *os.File
		encoder *wav.Encoder
		ib      *audio.IntBuffer
	}
)

// Open opens wav file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("%w: failed to close file %v: %v", ErrInvalidFile, path, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	if decoder.BitDepth != bitDepth {
		file.Close()
		return nil, fmt.Errorf("%w: %s has %d bits", ErrUnsupportedBitDepth, path, decoder.BitDepth)
	}
	return &Reader{
		file:    file,
		decoder: decoder,
		ib: &audio.IntBuffer{
			Format:         decoder.Format(),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// SampleRate of the file.
func (r *Reader) SampleRate() int {
	return int(r.decoder.SampleRate)
}

// NumChannels of the file.
func (r *Reader) NumChannels() int {
	return int(r.decoder.NumChans)
}

// Read reads interleaved frames into buf and returns number of read
// frames. Zero frames are returned at the end of file.
func (r *Reader) Read(buf []int16) (int, error) {
	n := len(buf) - len(buf)%r.NumChannels()
	if cap(r.ib.Data) < n {
		r.ib.Data = make([]int, n)
	}
	r.ib.Data = r.ib.Data[:n]
	read, err := r.decoder.PCMBuffer(r.ib)
	if err != nil {
		return 0, err
	}
	signal.Int16s(buf[:read], r.ib.Data[:read])
	return read / r.NumChannels(), nil
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Create creates wav file for writing.
func Create(path string, sampleRate, numChannels int) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, numChannels, pcmFormat),
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write writes interleaved frames from buf.
func (w *Writer) Write(buf []int16, frames int) error {
	n := frames * w.ib.Format.NumChannels
	if cap(w.ib.Data) < n {
		w.ib.Data = make([]int, n)
	}
	w.ib.Data = w.ib.Data[:n]
	signal.Ints(w.ib.Data, buf[:n])
	return w.encoder.Write(w.ib)
}

// Close flushes the encoder and closes the file.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		return err
	}
	return w.file.Close()
}
