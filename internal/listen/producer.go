package listen

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"coach/internal/slot"
)

type Status string

const (
	StatusIdle         Status = "Idle"
	StatusRecording    Status = "Recording..."
	StatusNotRecording Status = "Not Recording"
	StatusNoAudio      Status = "No Audio"
	StatusModelError   Status = "Model Error"
	StatusWriteError   Status = "Write Error"
	StatusComplete     Status = "Complete"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoDecoder      = errors.New("no audio file decoder configured")
)

// Engine turns mono 16 kHz samples into transcript segments.
type Engine interface {
	Transcribe(ctx context.Context, pcm []float32) ([]string, error)
}

// Decoder loads an audio file as mono 16 kHz samples.
type Decoder func(ctx context.Context, path string) ([]float32, error)

// State is what a UI shows: a status label and the current transcript.
type State struct {
	Status     Status `json:"status"`
	Transcript string `json:"transcript"`
}

// Command is a single control request addressed to the producer.
type Command struct {
	Cmd      string `json:"cmd"`
	Rating   int    `json:"rating,omitempty"`
	Comments string `json:"comments,omitempty"`
	Path     string `json:"path,omitempty"`
}

type Option func(*Producer)

// WithSettle makes Stop wait d between halting the session and draining it.
func WithSettle(d time.Duration) Option {
	return func(p *Producer) { p.settle = d }
}

// WithCue runs fn in the background every time a recording starts.
func WithCue(fn func()) Option {
	return func(p *Producer) { p.cue = fn }
}

// WithKeep hands every drained recording to fn before transcription.
func WithKeep(fn func(pcm []float32) error) Option {
	return func(p *Producer) { p.keep = fn }
}

func WithDecoder(fn Decoder) Option {
	return func(p *Producer) { p.decode = fn }
}

// Producer records speech, transcribes it and persists the transcript to
// the request slot. A nil engine leaves the producer usable but every
// transcription reports StatusModelError.
type Producer struct {
	session *Session
	engine  Engine
	out     *slot.Slot

	settle time.Duration
	cue    func()
	keep   func(pcm []float32) error
	decode Decoder

	cmd  sync.Mutex // orders start, stop and end
	work sync.Mutex // serializes transcriptions

	mu        sync.Mutex
	state     State
	observers []func(State)
}

func NewProducer(engine Engine, out *slot.Slot, opts ...Option) *Producer {
	p := &Producer{
		session: &Session{},
		engine:  engine,
		out:     out,
		state:   State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sink is the capture callback. It only ever appends to the session.
func (p *Producer) Sink(frame []float32) {
	p.session.Append(frame)
}

// Subscribe registers fn to be called with every new state.
func (p *Producer) Subscribe(fn func(State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

func (p *Producer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Producer) set(s State) State {
	p.mu.Lock()
	p.state = s
	observers := slices.Clone(p.observers)
	p.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
	return s
}

// Start clears the audio buffer and begins recording.
func (p *Producer) Start() State {
	p.cmd.Lock()
	defer p.cmd.Unlock()

	p.session.Begin()
	log.Info("Recording started")
	if p.cue != nil {
		go p.cue()
	}
	return p.set(State{Status: StatusRecording, Transcript: "..."})
}

// Stop ends the recording, transcribes what was captured and writes the
// transcript to the request slot. An empty recording leaves the slot
// untouched. Start and End wait until the transcription finishes.
func (p *Producer) Stop(ctx context.Context) (State, error) {
	p.cmd.Lock()
	defer p.cmd.Unlock()

	if !p.session.Halt() {
		return p.set(State{Status: StatusNotRecording}), nil
	}
	if p.settle > 0 {
		time.Sleep(p.settle)
	}
	pcm := p.session.Drain()
	log.Info("Recording stopped", "samples", len(pcm))
	return p.process(ctx, pcm)
}

// TranscribeFile runs the audio file at path through the same path as a
// stopped recording.
func (p *Producer) TranscribeFile(ctx context.Context, path string) (State, error) {
	if p.decode == nil {
		return p.State(), ErrNoDecoder
	}
	pcm, err := p.decode(ctx, path)
	if err != nil {
		return p.State(), fmt.Errorf("decode %s: %w", path, err)
	}
	log.Info("Transcribing file", "path", path, "samples", len(pcm))
	return p.process(ctx, pcm)
}

func (p *Producer) process(ctx context.Context, pcm []float32) (State, error) {
	p.work.Lock()
	defer p.work.Unlock()

	if len(pcm) == 0 {
		log.Info("No audio captured")
		return p.set(State{Status: StatusNoAudio}), nil
	}

	if p.keep != nil {
		if err := p.keep(pcm); err != nil {
			log.Warn("Failed to keep recording", "err", err)
		}
	}

	if p.engine == nil {
		log.Error("Transcription engine unavailable")
		return p.set(State{Status: StatusModelError}), nil
	}

	segments, err := p.engine.Transcribe(ctx, pcm)
	if err != nil {
		p.set(State{Status: StatusModelError})
		return p.State(), fmt.Errorf("transcribe: %w", err)
	}

	text := strings.Join(segments, "\n")
	if err := p.out.Write(text); err != nil {
		p.set(State{Status: StatusWriteError, Transcript: text})
		return p.State(), fmt.Errorf("write request: %w", err)
	}
	log.Info("Transcript written", "slot", p.out.Path(), "segments", len(segments))
	log.Debug("Transcript", "text", text)

	return p.set(State{Status: StatusComplete, Transcript: text}), nil
}

// Clear resets the display to idle. The buffer and the request slot are
// left alone.
func (p *Producer) Clear() State {
	return p.set(State{Status: StatusIdle})
}

// End finishes the interview: any recording is abandoned and the
// producer goes back to idle.
func (p *Producer) End() State {
	p.cmd.Lock()
	defer p.cmd.Unlock()

	if p.session.Halt() {
		p.session.Drain()
		log.Info("Recording abandoned")
	}
	log.Info("Interview ended")
	return p.set(State{Status: StatusIdle})
}

// Feedback logs the end-of-session rating. It is never persisted.
func (p *Producer) Feedback(rating int, comments string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	log.Info("Feedback", "rating", strings.Repeat("★", rating), "comments", comments)
	return nil
}

// Do dispatches a control command.
func (p *Producer) Do(ctx context.Context, c Command) (State, error) {
	switch c.Cmd {
	case "start":
		return p.Start(), nil
	case "stop":
		return p.Stop(ctx)
	case "clear":
		return p.Clear(), nil
	case "status":
		return p.State(), nil
	case "end":
		return p.End(), nil
	case "feedback":
		return p.State(), p.Feedback(c.Rating, c.Comments)
	case "file":
		return p.TranscribeFile(ctx, c.Path)
	default:
		return p.State(), fmt.Errorf("%w: %q", ErrUnknownCommand, c.Cmd)
	}
}
