// Package speak voices every new reply written to the response slot.
package speak

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"coach/internal/mailbox"
	"coach/internal/slot"
	"coach/internal/tts"
)

// Player plays the WAV file at path and returns once it has finished.
type Player func(path string) error

// Ducker quiets other audio while the coach talks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Option func(*Speaker)

func WithDucker(d Ducker) Option {
	return func(s *Speaker) { s.ducker = d }
}

// Speaker detects replies and plays them on separate goroutines. A reply
// that arrives while another is playing waits in a single-slot mailbox;
// a newer reply replaces it.
type Speaker struct {
	synth     tts.Synthesizer
	play      Player
	audioPath string
	ducker    Ducker
	pending   *mailbox.Mailbox[string]
}

func New(synth tts.Synthesizer, play Player, audioPath string, opts ...Option) *Speaker {
	s := &Speaker{
		synth:     synth,
		play:      play,
		audioPath: audioPath,
		pending:   mailbox.New[string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue hands text to the playback goroutine.
func (s *Speaker) Enqueue(_ context.Context, text string) error {
	if s.pending.Put(text) {
		log.Info("Newer reply replaced one waiting to be spoken")
	}
	return nil
}

// Run watches the response slot and speaks until ctx is done. A reply
// being spoken when ctx ends is finished first.
func (s *Speaker) Run(ctx context.Context, w *slot.Watcher) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx, s.Enqueue)
	})
	g.Go(func() error {
		for {
			text, err := s.pending.Take(ctx)
			if err != nil {
				return nil
			}
			if err := s.Speak(ctx, text); err != nil {
				log.Error("Failed to speak reply", "err", err)
			}
		}
	})
	return g.Wait()
}

// Speak synthesizes text to the audio file and plays it.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	ctx = context.WithoutCancel(ctx)

	log.Info("Synthesizing", "chars", len(text))
	log.Debug("Synthesizing", "text", text)
	start := time.Now()
	if err := s.synth.Synthesize(ctx, text, s.audioPath); err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	log.Debug("Synthesized", "path", s.audioPath, "took", time.Since(start).Round(time.Millisecond))

	if s.ducker != nil {
		if err := s.ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck other audio", "err", err)
		}
		defer func() {
			if err := s.ducker.Restore(ctx); err != nil {
				log.Warn("Failed to restore other audio", "err", err)
			}
		}()
	}

	if err := s.play(s.audioPath); err != nil {
		return fmt.Errorf("play %s: %w", s.audioPath, err)
	}
	log.Info("Played", "path", s.audioPath)
	return nil
}
