package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// PlayWAV plays the WAV file at path on the default output device and
// blocks until playback has finished.
func PlayWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("playback: open %s: %w", path, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("playback: decode %s: %w", path, err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("playback: init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done

	if err := streamer.Err(); err != nil {
		return fmt.Errorf("playback: stream %s: %w", path, err)
	}
	return nil
}
