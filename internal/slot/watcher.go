package slot

import (
	"context"
	log "log/slog"
	"strings"
	"sync"
	"time"
)

// Handler receives the trimmed content of a slot each time it changes.
// An error is logged by the watcher and does not stop polling.
type Handler func(ctx context.Context, text string) error

// Watcher polls a slot's modification time at a fixed interval.
type Watcher struct {
	slot            *Slot
	interval        time.Duration
	processExisting bool

	mu        sync.Mutex
	primed    bool
	lastMtime time.Time // zero until the slot has been seen written
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithProcessExisting makes content already present when the watcher
// starts count as a new message.
func WithProcessExisting(on bool) WatcherOption {
	return func(w *Watcher) {
		w.processExisting = on
	}
}

// NewWatcher creates a watcher over s polling every interval.
func NewWatcher(s *Slot, interval time.Duration, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		slot:     s,
		interval: interval,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Prime records the slot's current state as the baseline. If the slot
// file exists its timestamp becomes the baseline, so content left over
// from an earlier run is not reported. If it does not exist the baseline
// is "never written" and the first write is reported.
func (w *Watcher) Prime() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.primeLocked()
}

func (w *Watcher) primeLocked() error {
	w.primed = true
	w.lastMtime = time.Time{}
	if w.processExisting {
		return nil
	}

	mtime, ok, err := w.slot.ModTime()
	if err != nil {
		return err
	}
	if ok {
		w.lastMtime = mtime
	}
	return nil
}

// Poll checks the slot once. changed is true when the modification time
// differs from the last observed one; text is then the trimmed content,
// which may be empty.
func (w *Watcher) Poll() (text string, changed bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.primed {
		if err := w.primeLocked(); err != nil {
			return "", false, err
		}
	}

	mtime, ok, err := w.slot.ModTime()
	if err != nil || !ok {
		return "", false, err
	}
	if mtime.Equal(w.lastMtime) {
		return "", false, nil
	}
	w.lastMtime = mtime

	content, err := w.slot.Read()
	if err != nil {
		return "", true, err
	}
	return strings.TrimSpace(content), true, nil
}

// Run polls until ctx is done, calling fn for every non-empty change.
// fn runs on the polling goroutine, so polling pauses while it works.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	log.Info("Watching slot", "path", w.slot.Path(), "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.check(ctx, fn)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) check(ctx context.Context, fn Handler) {
	text, changed, err := w.Poll()
	if err != nil {
		log.Warn("Slot poll failed", "path", w.slot.Path(), "err", err)
		return
	}
	if !changed {
		return
	}
	if text == "" {
		log.Debug("Slot changed but is empty", "path", w.slot.Path())
		return
	}

	if err := fn(ctx, text); err != nil {
		log.Error("Slot handler failed", "path", w.slot.Path(), "err", err)
	}
}
