package uifeed

import (
	"context"
	"fmt"
	log "log/slog"

	ws "github.com/gorilla/websocket"

	"coach/internal/listen"
)

// Client is a UI-side connection to the feed.
type Client struct {
	conn *ws.Conn
}

// Dial connects to the feed at url, e.g. ws://127.0.0.1:8093/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	log.Debug("Dialing UI feed", "url", url)
	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(cmd listen.Command) error {
	return c.conn.WriteJSON(cmd)
}

// Next blocks for the next event. ok is false once the feed has closed.
func (c *Client) Next() (ev Event, ok bool, err error) {
	if err := c.conn.ReadJSON(&ev); err != nil {
		if isClosed(err) {
			return Event{}, false, nil
		}
		return Event{}, false, err
	}
	return ev, true, nil
}

func (c *Client) Close() error {
	c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return c.conn.Close()
}
