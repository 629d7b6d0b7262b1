package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestForwardArgs(t *testing.T) {
	got := strings.Join(forwardArgs("", ".env", ""), " ")
	if got != "--env .env" {
		t.Errorf("forwardArgs() = %q, want %q", got, "--env .env")
	}

	args := forwardArgs("coach.yaml", "secrets.env", "debug")
	if len(args) != 6 {
		t.Fatalf("forwardArgs() = %q, want 6 args", args)
	}
	if args[0] != "--config" || !filepath.IsAbs(args[1]) {
		t.Errorf("config args = %q, want absolute --config", args[:2])
	}
	if strings.Join(args[2:], " ") != "--env secrets.env --log debug" {
		t.Errorf("forwardArgs() tail = %q", args[2:])
	}
}
