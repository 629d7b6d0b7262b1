//go:build !windows

package supervisor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func sleeper(t *testing.T, name, secs string) Program {
	t.Helper()
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	return Program{Name: name, Path: path, Args: []string{secs}}
}

func TestRunReturnsWhenChildrenExit(t *testing.T) {
	s := New(sleeper(t, "chat", "0"), sleeper(t, "listen", "0"))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after children exited")
	}
}

func TestRunTerminatesOnCancel(t *testing.T) {
	s := New(sleeper(t, "chat", "300"), sleeper(t, "speak", "300"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	for _, c := range s.children {
		select {
		case <-c.done:
		case <-time.After(5 * time.Second):
			t.Errorf("%s still running after terminate", c.prog.Name)
		}
	}
}

func TestStartFailureTerminatesStarted(t *testing.T) {
	ok := sleeper(t, "chat", "300")
	s := New(ok, Program{Name: "missing", Path: filepath.Join(t.TempDir(), "nope")})

	if err := s.Start(); err == nil {
		t.Fatal("Start() should fail for a missing binary")
	}
	if len(s.children) != 1 {
		t.Fatalf("started %d children, want 1", len(s.children))
	}
	select {
	case <-s.children[0].done:
	case <-time.After(5 * time.Second):
		t.Error("already started child was not terminated")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "coach-chat")
	if err := os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	progs, err := Resolve(dir, "coach-chat", "sleep")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if progs[0].Path != local {
		t.Errorf("coach-chat resolved to %q, want %q", progs[0].Path, local)
	}
	if want, _ := exec.LookPath("sleep"); progs[1].Path != want {
		t.Errorf("sleep resolved to %q, want %q from PATH", progs[1].Path, want)
	}

	if _, err := Resolve(dir, "coach-definitely-missing"); err == nil {
		t.Error("Resolve() should fail for an unknown binary")
	}
}
