package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Espeak shells out to espeak-ng, which needs no model server.
type Espeak struct {
	voice string
	bin   string
}

func NewEspeak(voice string) *Espeak {
	if voice == "" {
		voice = "en"
	}
	return &Espeak{voice: voice, bin: "espeak-ng"}
}

func (e *Espeak) Synthesize(ctx context.Context, text, outPath string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.bin, "-v", e.voice, "-w", outPath, "--", text)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
