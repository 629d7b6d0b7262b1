package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

const pactlSample = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
		media.name = "Playback"
Sink Input #57
	Driver: protocol-native.c
	Volume: mono: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "coach-speak"
Sink Input #bogus
	Volume: mono: 65536 / 100% / 0.00 dB
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(pactlSample)
	if len(got) != 2 {
		t.Fatalf("parseSinkInputs() returned %d inputs, want 2: %+v", len(got), got)
	}

	if got[0].ID != 41 || got[0].Volume != 80 || got[0].AppName != "Firefox" {
		t.Errorf("got[0] = %+v, want {41 80 Firefox}", got[0])
	}
	if got[1].ID != 57 || got[1].Volume != 100 || got[1].AppName != "coach-speak" {
		t.Errorf("got[1] = %+v, want {57 100 coach-speak}", got[1])
	}
}

func TestParseSinkInputsEmpty(t *testing.T) {
	if got := parseSinkInputs(""); len(got) != 0 {
		t.Errorf("parseSinkInputs(\"\") = %+v, want none", got)
	}
}

func TestDuckerTarget(t *testing.T) {
	d := NewDucker()

	tests := []struct {
		volume int
		want   int
	}{
		{100, 30},
		{150, 45},
		{10, 5},
		{3, 3},
		{0, 0},
	}
	for _, tt := range tests {
		if got := d.target(tt.volume); got != tt.want {
			t.Errorf("target(%d) = %d, want %d", tt.volume, got, tt.want)
		}
	}
}

func TestClampVolume(t *testing.T) {
	if got := clampVolume(-3); got != 0 {
		t.Errorf("clampVolume(-3) = %d, want 0", got)
	}
	if got := clampVolume(400); got != maxVolume {
		t.Errorf("clampVolume(400) = %d, want %d", got, maxVolume)
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	pcm := []float32{0, 0.5, -0.5, 1.5, -1.5}

	if err := WriteWAV(path, pcm, 16000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("WriteWAV() produced an invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}

	if dec.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", dec.BitDepth)
	}
	want := []int{0, 16383, -16383, 32767, -32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}
