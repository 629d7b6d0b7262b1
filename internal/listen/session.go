package listen

import "sync"

// Session buffers captured frames between Begin and Halt. The audio
// callback only ever calls Append; Drain is the single consumer.
type Session struct {
	mu        sync.Mutex
	recording bool
	frames    [][]float32
}

// Begin discards any buffered audio and starts accepting frames.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	s.recording = true
}

// Halt stops accepting frames and reports whether a recording was active.
func (s *Session) Halt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.recording
	s.recording = false
	return was
}

// Append copies frame into the buffer while recording. Frames arriving
// outside a recording are dropped.
func (s *Session) Append(frame []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording || len(frame) == 0 {
		return
	}
	buf := make([]float32, len(frame))
	copy(buf, frame)
	s.frames = append(s.frames, buf)
}

// Drain returns every buffered sample in capture order and empties the buffer.
func (s *Session) Drain() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, f := range s.frames {
		n += len(f)
	}
	if n == 0 {
		s.frames = nil
		return nil
	}
	out := make([]float32, 0, n)
	for _, f := range s.frames {
		out = append(out, f...)
	}
	s.frames = nil
	return out
}
