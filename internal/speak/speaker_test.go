package speak

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"coach/internal/slot"
)

type fileSynth struct {
	err error
}

func (f fileSynth) Synthesize(_ context.Context, text, outPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte(text), 0o644)
}

type recorder struct {
	mu      sync.Mutex
	played  []string
	started chan string
	release chan struct{}
}

func newRecorder() *recorder {
	return &recorder{started: make(chan string, 16)}
}

func (r *recorder) play(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r.started <- string(data)
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.played = append(r.played, string(data))
	r.mu.Unlock()
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.played...)
}

func waitStarted(t *testing.T, r *recorder) string {
	t.Helper()
	select {
	case text := <-r.started:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not start")
		return ""
	}
}

func run(t *testing.T, s *Speaker, w *slot.Watcher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, w) }()
	return func() {
		stop()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	}
}

func TestSpeaksNewReply(t *testing.T) {
	dir := t.TempDir()
	reply := slot.New(filepath.Join(dir, "chat_output.txt"))
	rec := newRecorder()
	s := New(fileSynth{}, rec.play, filepath.Join(dir, "out.wav"))

	w := slot.NewWatcher(reply, 10*time.Millisecond)
	if err := w.Prime(); err != nil {
		t.Fatal(err)
	}
	stop := run(t, s, w)
	defer stop()

	if err := reply.Write("Tell me about a failure.\n"); err != nil {
		t.Fatal(err)
	}
	if got := waitStarted(t, rec); got != "Tell me about a failure." {
		t.Errorf("played %q", got)
	}
}

func TestLatestReplyWins(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	rec.release = make(chan struct{})
	s := New(fileSynth{}, rec.play, filepath.Join(dir, "out.wav"))

	w := slot.NewWatcher(slot.New(filepath.Join(dir, "unused.txt")), time.Hour)
	stop := run(t, s, w)
	defer stop()

	ctx := context.Background()
	s.Enqueue(ctx, "one")
	if got := waitStarted(t, rec); got != "one" {
		t.Fatalf("first playback = %q, want one", got)
	}

	s.Enqueue(ctx, "two")
	s.Enqueue(ctx, "three")
	rec.release <- struct{}{}

	if got := waitStarted(t, rec); got != "three" {
		t.Errorf("second playback = %q, want three", got)
	}
	rec.release <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.got()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := rec.got(); len(got) != 2 || got[0] != "one" || got[1] != "three" {
		t.Errorf("played %q, want [one three]", got)
	}
}

func TestSynthesisFailureSkipsPlayback(t *testing.T) {
	rec := newRecorder()
	s := New(fileSynth{err: errors.New("server down")}, rec.play, filepath.Join(t.TempDir(), "out.wav"))

	if err := s.Speak(context.Background(), "hello"); err == nil {
		t.Fatal("Speak() should return synthesis error")
	}
	if got := rec.got(); len(got) != 0 {
		t.Errorf("played %q after synthesis failure", got)
	}
}

type fakeDucker struct {
	calls []string
}

func (f *fakeDucker) Duck(context.Context) error {
	f.calls = append(f.calls, "duck")
	return nil
}

func (f *fakeDucker) Restore(context.Context) error {
	f.calls = append(f.calls, "restore")
	return errors.New("pactl missing")
}

func TestSpeakDucksAroundPlayback(t *testing.T) {
	d := &fakeDucker{}
	rec := newRecorder()
	play := func(path string) error {
		d.calls = append(d.calls, "play")
		return rec.play(path)
	}
	s := New(fileSynth{}, play, filepath.Join(t.TempDir(), "out.wav"), WithDucker(d))

	if err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	want := []string{"duck", "play", "restore"}
	if len(d.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
	for i := range want {
		if d.calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", d.calls, want)
			break
		}
	}
}

func TestPlaybackErrorIsReported(t *testing.T) {
	s := New(fileSynth{}, func(string) error { return errors.New("no device") }, filepath.Join(t.TempDir(), "out.wav"))
	if err := s.Speak(context.Background(), "hello"); err == nil {
		t.Error("Speak() should return playback error")
	}
}

func TestRunContinuesAfterPlaybackError(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	failed := make(chan struct{})
	var calls int
	play := func(path string) error {
		calls++
		if calls == 1 {
			close(failed)
			return errors.New("device busy")
		}
		return rec.play(path)
	}
	s := New(fileSynth{}, play, filepath.Join(dir, "out.wav"))

	w := slot.NewWatcher(slot.New(filepath.Join(dir, "unused.txt")), time.Hour)
	stop := run(t, s, w)
	defer stop()

	ctx := context.Background()
	s.Enqueue(ctx, "lost")
	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("first playback was not attempted")
	}
	s.Enqueue(ctx, "Walk me through it.")

	if got := waitStarted(t, rec); got != "Walk me through it." {
		t.Errorf("played %q after a failed playback, want the next reply", got)
	}
}
