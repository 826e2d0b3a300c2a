package wled

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// maxWSMessages bounds how many frames ReadState inspects before giving up.
// The device normally sends the full state as the first frame.
const maxWSMessages = 8

// WebSocketURL returns the /ws endpoint derived from BaseURL
func (c *Client) WebSocketURL() string {
	u := c.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// ReadState connects to the device's /ws endpoint, asks for the full state
// and returns the first state frame received.
func (c *Client) ReadState(ctx context.Context, timeout time.Duration) (*State, error) {
	timeout = c.timeoutOr(timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	var header http.Header
	if c.UserAgent != "" {
		header = http.Header{"User-Agent": []string{c.UserAgent}}
	}
	conn, resp, err := dialer.DialContext(ctx, c.WebSocketURL(), header)
	if err != nil {
		if resp != nil {
			return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("websocket handshake failed with status %d", resp.StatusCode))
		}
		return nil, NewNetworkError("websocket dial failed", err, c.IP)
	}
	defer func() { _ = conn.Close() }()

	deadline, _ := ctx.Deadline()
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	if err := conn.WriteJSON(map[string]bool{"v": true}); err != nil {
		return nil, NewNetworkError("websocket write failed", err, c.IP)
	}

	for i := 0; i < maxWSMessages; i++ {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, NewNetworkError("websocket read failed", err, c.IP)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, NewParseError("failed to parse websocket frame", err)
		}
		if msg.State != nil {
			return msg.State, nil
		}
	}

	return nil, NewParseError(fmt.Sprintf("no state frame in %d websocket messages", maxWSMessages), nil)
}
