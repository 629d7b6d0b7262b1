// Package slot implements the single-message file mailboxes the coach
// processes use to hand text to each other.
//
// A slot holds at most one message. Writing replaces whatever was there,
// consumed or not. Readers detect new messages by modification time only,
// so a touch with unchanged content counts as a new message and a rewrite
// that keeps the old timestamp does not.
package slot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Slot is a text file used as a single-message mailbox.
type Slot struct {
	path    string
	newline bool
}

// Option configures a Slot.
type Option func(*Slot)

// WithTrailingNewline terminates every written message with exactly one
// newline.
func WithTrailingNewline() Option {
	return func(s *Slot) {
		s.newline = true
	}
}

// New returns a slot backed by the file at path. The file is created on
// first write.
func New(path string, opts ...Option) *Slot {
	s := &Slot{path: path}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Slot) Path() string { return s.path }

// Write replaces the slot content with text.
func (s *Slot) Write(text string) error {
	if s.newline {
		text = strings.TrimRight(text, "\r\n") + "\n"
	}
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("slot: write %s: %w", s.path, err)
	}
	return nil
}

// Read returns the full slot content as written.
func (s *Slot) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("slot: read %s: %w", s.path, err)
	}
	return string(data), nil
}

// ModTime reports the slot's modification time. ok is false when the
// file has never been written.
func (s *Slot) ModTime() (mtime time.Time, ok bool, err error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("slot: stat %s: %w", s.path, err)
	}
	return info.ModTime(), true, nil
}

// Reset empties the slot. Readers skip empty content, so a reset slot
// behaves as one that holds no message.
func (s *Slot) Reset() error {
	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("slot: reset %s: %w", s.path, err)
	}
	return nil
}
