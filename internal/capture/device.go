package capture

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// ErrDeviceUnavailable indicates the default input device could not be opened,
// either because no device exists or access was denied.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// StreamConfig describes how the microphone should be opened
type StreamConfig struct {
	SampleRate      int
	FramesPerBuffer int
}

// Device opens exclusive microphone input streams
type Device interface {
	Open(cfg StreamConfig) (Stream, error)
}

// Stream is a live microphone stream. Read blocks until one frame of samples
// is available. Stop unblocks a pending Read; Close releases the device.
type Stream interface {
	Read(frame []int16) error
	Stop() error
	Close() error
}

// PortAudioDevice opens the system default input device via PortAudio
type PortAudioDevice struct{}

// NewPortAudioDevice creates the default microphone device
func NewPortAudioDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

// Open initializes PortAudio and starts a mono input stream
func (d *PortAudioDevice) Open(cfg StreamConfig) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize failed: %v", ErrDeviceUnavailable, err)
	}

	buffer := make([]int16, cfg.FramesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: open failed: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: start failed: %v", ErrDeviceUnavailable, err)
	}

	return &portAudioStream{stream: stream, buffer: buffer}, nil
}

// portAudioStream wraps a started PortAudio stream and its bound frame buffer
type portAudioStream struct {
	stream *portaudio.Stream
	buffer []int16
	closed bool
}

func (s *portAudioStream) Read(frame []int16) error {
	if err := s.stream.Read(); err != nil {
		return err
	}
	copy(frame, s.buffer)
	return nil
}

func (s *portAudioStream) Stop() error {
	return s.stream.Stop()
}

func (s *portAudioStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
