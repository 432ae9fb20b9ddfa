// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warrenmud/warren/internal/game"
	"github.com/warrenmud/warren/internal/observability"
	"github.com/warrenmud/warren/internal/wire"
)

// client is one websocket connection with its protocol state. The read pump
// is the only goroutine touching the game state, which gives every handler
// the single-threaded view the dispatcher requires.
type client struct {
	conn    *websocket.Conn
	engine  *game.Engine
	state   *game.Conn
	metrics *observability.Metrics
	send    chan wire.ServerMessage
}

func newClient(conn *websocket.Conn, engine *game.Engine, metrics *observability.Metrics) *client {
	return &client{
		conn:    conn,
		engine:  engine,
		state:   game.NewConn(),
		metrics: metrics,
		send:    make(chan wire.ServerMessage, 64),
	}
}

// readPump consumes inbound frames until the connection dies. Cancelling
// ctx (connection close) abandons any in-flight dispatch output.
func (c *client) readPump(ctx context.Context) {
	// Closing the send channel lets the write pump flush the frames already
	// queued (a bad_json report included), send a close frame and close the
	// socket.
	defer close(c.send)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}

		if !json.Valid(data) {
			// A frame that is not JSON is a protocol violation: report it
			// and hang up.
			c.enqueue(wire.ServerMessage{
				Type:    wire.TypeError,
				Payload: wire.Error{Code: wire.CodeBadJSON, Message: "frame is not valid JSON"},
			})
			return
		}

		var env wire.Envelope
		if err := wire.DecodeStrict(data, &env); err != nil {
			c.countMessage("unknown", "error")
			c.enqueue(wire.ServerMessage{
				Type:    wire.TypeError,
				Payload: wire.Error{Code: wire.CodeBadSchema, Message: "malformed envelope"},
			})
			continue
		}

		out := c.engine.Handle(ctx, c.state, env)
		c.countMessage(env.Type, resultOf(out))
		for _, msg := range out {
			c.enqueue(msg)
		}
	}
}

// enqueue hands a frame to the write pump, dropping the connection's
// backlog pressure on the websocket rather than blocking dispatch forever.
func (c *client) enqueue(msg wire.ServerMessage) {
	select {
	case c.send <- msg:
	default:
		slog.Warn("send buffer full, dropping connection frame")
	}
}

// writePump serializes all writes and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			slog.Debug("websocket close failed in write pump", "error", err)
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set write deadline", "error", err)
			}
			if !ok {
				//nolint:errcheck // best-effort close frame on a dying socket
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set ping write deadline", "error", err)
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// resultOf classifies a dispatch outcome for metrics.
func resultOf(out []wire.ServerMessage) string {
	for _, msg := range out {
		switch p := msg.Payload.(type) {
		case wire.Error:
			return "error"
		case wire.AuthErr:
			return "refused"
		case wire.ActionResult:
			if !p.OK {
				return "refused"
			}
		}
	}
	return "ok"
}

func (c *client) countMessage(msgType, result string) {
	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues(msgType, result).Inc()
	}
}
