// Package ipc carries control requests to the transcription producer over a
// unix socket, one JSON request and one JSON response per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// CommandTimeout bounds how long clients wait for commands that do not
// transcribe.
const CommandTimeout = 5 * time.Second

type Request struct {
	Cmd      string `json:"cmd"`
	Rating   int    `json:"rating,omitempty"`
	Comments string `json:"comments,omitempty"`
	Path     string `json:"path,omitempty"`
}

type Response struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
	Error      string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	ln      net.Listener
	path    string
	handler Handler
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// Listen removes a stale socket at path, binds it and starts serving.
func Listen(path string, handler Handler) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{ln: ln, path: path, handler: handler, cancel: cancel}
	s.wg.Add(1)
	go s.serve(ctx)
	return s, nil
}

func (s *Server) serve(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("Accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Bad control request", "err", err)
		return
	}
	log.Debug("Control request", "cmd", req.Cmd)

	resp := s.handler(ctx, req)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Warn("Failed to reply", "cmd", req.Cmd, "err", err)
	}
}

// Close stops accepting, waits for in-flight requests and removes the socket.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.cancel()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

// Send delivers req to the server at path and returns its reply. A reply
// carrying an error is returned as both the response and an error.
func Send(ctx context.Context, path string, req Request) (Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", req.Cmd, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read reply to %s: %w", req.Cmd, err)
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}
