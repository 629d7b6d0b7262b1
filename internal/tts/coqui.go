package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const coquiEndpoint = "/api/tts"

// Coqui talks to a standard Coqui TTS server.
type Coqui struct {
	server  string
	speaker string
	client  *http.Client
}

func NewCoqui(server, speaker string) *Coqui {
	return &Coqui{
		server:  strings.TrimRight(server, "/"),
		speaker: speaker,
		client:  &http.Client{},
	}
}

func (c *Coqui) Synthesize(ctx context.Context, text, outPath string) error {
	params := url.Values{}
	params.Set("text", text)
	if c.speaker != "" {
		params.Set("speaker_id", c.speaker)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+coquiEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("coqui: create request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("coqui: GET %s: %w", coquiEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coqui: GET %s returned status %d", coquiEndpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coqui: read response: %w", err)
	}
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return fmt.Errorf("coqui: response is not a WAV file (%d bytes)", len(data))
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("coqui: write %s: %w", outPath, err)
	}
	return nil
}
