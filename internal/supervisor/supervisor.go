// Package supervisor launches the coach components as child processes.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

type Program struct {
	Name string
	Path string
	Args []string
}

type child struct {
	prog Program
	cmd  *exec.Cmd
	done chan struct{}
}

type Supervisor struct {
	programs []Program

	mu       sync.Mutex
	children []*child
}

func New(programs ...Program) *Supervisor {
	return &Supervisor{programs: programs}
}

// Start launches every program in order. If one fails to start, the ones
// already running are terminated.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.programs {
		log.Info("Starting", "program", p.Name)

		cmd := exec.Command(p.Path, p.Args...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			s.terminateLocked()
			return fmt.Errorf("start %s: %w", p.Name, err)
		}

		c := &child{prog: p, cmd: cmd, done: make(chan struct{})}
		go func() {
			err := cmd.Wait()
			if err != nil {
				log.Warn("Exited", "program", p.Name, "err", err)
			} else {
				log.Info("Exited", "program", p.Name)
			}
			close(c.done)
		}()
		s.children = append(s.children, c)
	}

	log.Info("All programs launched", "count", len(s.children))
	return nil
}

// Run starts the programs and blocks until they have all exited or ctx is
// done. On ctx done every child is asked to terminate and Run returns
// without waiting for them.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	s.mu.Lock()
	children := append([]*child(nil), s.children...)
	s.mu.Unlock()

	for _, c := range children {
		select {
		case <-c.done:
		case <-ctx.Done():
			log.Info("Stopping all programs")
			s.Terminate()
			return nil
		}
	}
	return nil
}

// Terminate sends every running child a termination request.
func (s *Supervisor) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminateLocked()
}

func (s *Supervisor) terminateLocked() {
	for _, c := range s.children {
		select {
		case <-c.done:
			continue
		default:
		}
		if err := terminate(c.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Warn("Failed to terminate", "program", c.prog.Name, "err", err)
		}
	}
}

// Resolve finds each named binary in binDir, falling back to PATH.
func Resolve(binDir string, names ...string) ([]Program, error) {
	progs := make([]Program, 0, len(names))
	for _, name := range names {
		path := ""
		if binDir != "" {
			if p := filepath.Join(binDir, name); isFile(p) {
				path = p
			}
		}
		if path == "" {
			p, err := exec.LookPath(name)
			if err != nil {
				return nil, fmt.Errorf("find %s: %w", name, err)
			}
			path = p
		}
		progs = append(progs, Program{Name: name, Path: path})
	}
	return progs, nil
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
