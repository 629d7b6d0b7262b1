package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture is an open microphone stream. PortAudio calls the sink from its
// own thread with every captured frame; the frame slice is reused after
// the sink returns.
type Capture struct {
	stream *portaudio.Stream
}

// OpenCapture starts a mono float32 input stream on the default device.
// chunk sets the callback block size.
func OpenCapture(sampleRate int, chunk time.Duration, sink func(frame []float32)) (*Capture, error) {
	frames := int(float64(sampleRate) * chunk.Seconds())
	if frames <= 0 {
		return nil, fmt.Errorf("capture: chunk %s too short for %d Hz", chunk, sampleRate)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: init portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frames, func(in []float32) {
		sink(in)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}

	return &Capture{stream: stream}, nil
}

// Close stops the stream and releases PortAudio.
func (c *Capture) Close() error {
	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	portaudio.Terminate()

	if stopErr != nil {
		return fmt.Errorf("capture: stop stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("capture: close stream: %w", closeErr)
	}
	return nil
}
