package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are short, keep them out of the long test temp dir
	dir, err := os.MkdirTemp("", "coach")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "c.sock")
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)
	srv, err := Listen(path, func(_ context.Context, req Request) Response {
		switch req.Cmd {
		case "stop":
			return Response{Status: "Complete", Transcript: "hello"}
		case "feedback":
			if req.Rating != 4 || req.Comments != "good" {
				return Response{Status: "Idle", Error: "bad feedback"}
			}
			return Response{Status: "Idle"}
		}
		return Response{Status: "Idle", Error: "unknown command"}
	})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := Send(ctx, path, Request{Cmd: "stop"})
	if err != nil {
		t.Fatalf("Send(stop) error = %v", err)
	}
	if resp.Status != "Complete" || resp.Transcript != "hello" {
		t.Errorf("Send(stop) = %+v", resp)
	}

	if _, err := Send(ctx, path, Request{Cmd: "feedback", Rating: 4, Comments: "good"}); err != nil {
		t.Errorf("Send(feedback) error = %v", err)
	}

	resp, err = Send(ctx, path, Request{Cmd: "rewind"})
	if err == nil || err.Error() != "unknown command" {
		t.Errorf("Send(rewind) error = %v, want unknown command", err)
	}
	if resp.Status != "Idle" {
		t.Errorf("Send(rewind) status = %q, want Idle", resp.Status)
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	srv, err := Listen(path, func(context.Context, Request) Response { return Response{Status: "Idle"} })
	if err != nil {
		t.Fatalf("Listen() over stale file error = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket still present after Close: %v", err)
	}
}

func TestSendNoServer(t *testing.T) {
	if _, err := Send(context.Background(), socketPath(t), Request{Cmd: "status"}); err == nil {
		t.Error("Send() without server should return error")
	}
}
