package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var wavHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

func TestCoquiSynthesize(t *testing.T) {
	var gotText, gotSpeaker string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			http.NotFound(w, r)
			return
		}
		gotText = r.URL.Query().Get("text")
		gotSpeaker = r.URL.Query().Get("speaker_id")
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavHeader)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "reply.wav")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCoqui(srv.URL+"/", "p225")
	if err := c.Synthesize(context.Background(), "Tell me about yourself?", out); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if gotText != "Tell me about yourself?" {
		t.Errorf("text = %q", gotText)
	}
	if gotSpeaker != "p225" {
		t.Errorf("speaker_id = %q, want p225", gotSpeaker)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(wavHeader) {
		t.Errorf("output = %q, want server response", data)
	}
}

func TestCoquiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"not wav", http.StatusOK, "<html>oops</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := filepath.Join(t.TempDir(), "reply.wav")
			if err := NewCoqui(srv.URL, "").Synthesize(context.Background(), "hi", out); err == nil {
				t.Fatal("Synthesize() should return error")
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("output written on failure: %v", err)
			}
		})
	}
}

func TestEspeakSynthesize(t *testing.T) {
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		t.Skip("espeak-ng not installed")
	}

	out := filepath.Join(t.TempDir(), "reply.wav")
	if err := NewEspeak("").Synthesize(context.Background(), "Why should we hire you?", out); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || string(data[:4]) != "RIFF" {
		t.Error("espeak output is not a WAV file")
	}
}

func TestNew(t *testing.T) {
	if s, err := New(Options{Backend: "coqui", Server: "http://localhost:5002"}); err != nil {
		t.Errorf("New(coqui) error = %v", err)
	} else if _, ok := s.(*Coqui); !ok {
		t.Errorf("New(coqui) = %T", s)
	}
	if s, err := New(Options{Backend: "espeak"}); err != nil {
		t.Errorf("New(espeak) error = %v", err)
	} else if _, ok := s.(*Espeak); !ok {
		t.Errorf("New(espeak) = %T", s)
	}
	if _, err := New(Options{Backend: "festival"}); err == nil {
		t.Error("New(festival) should return error")
	}
}
