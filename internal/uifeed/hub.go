// Package uifeed exposes the producer to browser UIs over WebSocket. Every
// client receives the producer state after each change and may send the
// same commands the control socket accepts.
package uifeed

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"coach/internal/listen"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Controller is the part of the producer the feed drives.
type Controller interface {
	Do(ctx context.Context, c listen.Command) (listen.State, error)
	State() listen.State
}

type Event struct {
	Status     listen.Status `json:"status"`
	Transcript string        `json:"transcript"`
	Error      string        `json:"error,omitempty"`
}

type client struct {
	conn *ws.Conn
	send chan Event
}

type Hub struct {
	ctrl     Controller
	upgrader ws.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(ctrl Controller) *Hub {
	return &Hub{
		ctrl:     ctrl,
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// Broadcast queues s for every connected client. Slow clients miss events.
func (h *Hub) Broadcast(s listen.State) {
	ev := Event{Status: s.Status, Transcript: s.Transcript}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			log.Debug("Dropping event for slow client", "addr", c.conn.RemoteAddr())
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	st := h.ctrl.State()
	c.send <- Event{Status: st.Status, Transcript: st.Transcript}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info("UI connected", "addr", conn.RemoteAddr())

	done := make(chan struct{})
	go h.write(c, done)
	h.read(r.Context(), c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Info("UI disconnected", "addr", conn.RemoteAddr())
}

func (h *Hub) read(ctx context.Context, c *client) {
	for {
		var cmd listen.Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !isClosed(err) {
				log.Warn("Read failed", "err", err)
			}
			return
		}
		log.Debug("UI command", "cmd", cmd.Cmd)

		if _, err := h.ctrl.Do(ctx, cmd); err != nil {
			st := h.ctrl.State()
			select {
			case c.send <- Event{Status: st.Status, Transcript: st.Transcript, Error: err.Error()}:
			default:
			}
		}
	}
}

func (h *Hub) write(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug("Write failed", "err", err)
				return
			}
		}
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}

// Serve runs the feed at addr under /ws until ctx is done.
func Serve(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.Info("UI feed listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("ui feed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
