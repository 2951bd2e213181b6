package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/metrics"
	"llm-tick-trader/internal/wire"
)

// ErrTimeout reports that no matching response arrived before the deadline.
var ErrTimeout = errors.New("decision round trip timed out")

// Client is the producer end of one transport channel. One client serves one
// (account, model) binding and carries at most one outstanding request; the
// mutex enforces that even under misuse.
type Client struct {
	url  string
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(endpoint string) *Client {
	url := endpoint
	if !strings.Contains(url, "://") {
		url = "ws://" + url
	}
	return &Client{url: url}
}

// Request sends req and waits for the response carrying the same request id,
// up to the ctx deadline. Frames with a different id are stale leftovers from
// a timed-out round trip; they are dropped and logged, never returned.
func (c *Client) Request(ctx context.Context, req wire.Request) (wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConn(ctx); err != nil {
		return wire.Response{}, fmt.Errorf("dial %s: %w", c.url, err)
	}

	deadline, hasDeadline := ctx.Deadline()

	b, err := wire.EncodeRequest(req)
	if err != nil {
		return wire.Response{}, err
	}
	if hasDeadline {
		c.conn.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		c.drop()
		return wire.Response{}, fmt.Errorf("send request: %w", err)
	}

	for {
		if hasDeadline {
			c.conn.SetReadDeadline(deadline)
		}
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			// Dropping the connection discards whatever late response may
			// still be in flight; the next tick starts from a clean channel.
			c.drop()
			if isTimeout(err) || ctx.Err() != nil {
				return wire.Response{}, ErrTimeout
			}
			return wire.Response{}, fmt.Errorf("read response: %w", err)
		}

		resp, err := wire.DecodeResponse(msg)
		if err != nil {
			logger.Warn(ctx, "Undecodable response frame dropped", "error", err.Error())
			continue
		}
		if resp.RequestID != req.RequestID {
			metrics.StaleResponsesTotal.Inc()
			logger.Warn(ctx, "Stale response dropped",
				"got_request_id", resp.RequestID,
				"want_request_id", req.RequestID,
			)
			continue
		}
		return resp, nil
	}
}

func (c *Client) ensureConn(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
