// Package tts renders reply text to a WAV file.
package tts

import (
	"context"
	"fmt"
)

type Synthesizer interface {
	// Synthesize writes the spoken form of text to outPath, replacing any
	// previous file.
	Synthesize(ctx context.Context, text, outPath string) error
}

type Options struct {
	Backend string // "coqui" or "espeak"
	Server  string
	Voice   string
}

func New(opt Options) (Synthesizer, error) {
	switch opt.Backend {
	case "coqui", "":
		return NewCoqui(opt.Server, opt.Voice), nil
	case "espeak":
		return NewEspeak(opt.Voice), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", opt.Backend)
	}
}
