// Package portaudio plays processed audio with the default output
// device.
package portaudio

import (
	"github.com/gordonklaus/portaudio"
)

// Sink writes interleaved 16-bit frames to portaudio stream.
type Sink struct {
	buf         []int16
	stream      *portaudio.Stream
	numChannels int
}

// NewSink initializes portaudio and starts default stream. Frames are
// written to the stream in blocks of bufferSize.
func NewSink(sampleRate, numChannels, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := Sink{
		buf:         make([]int16, bufferSize*numChannels),
		numChannels: numChannels,
	}
	var err error
	s.stream, err = portaudio.OpenDefaultStream(0, numChannels, float64(sampleRate), bufferSize, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err = s.stream.Start(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	return &s, nil
}

// Write plays frames of interleaved buffer. Incomplete block is padded
// with silence.
func (s *Sink) Write(buf []int16, frames int) error {
	for n := frames * s.numChannels; n > 0; {
		copied := copy(s.buf, buf[:n])
		for i := copied; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return err
		}
		buf, n = buf[copied:], n-copied
	}
	return nil
}

// Close stops the stream and terminates portaudio.
func (s *Sink) Close() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
