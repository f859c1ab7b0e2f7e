// Package feed ingests raw signal text from the upstream WebSocket feed
// and submits each frame to the pipeline. The feed is an optional input
// surface; the desk is fully operable over HTTP without it.
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one raw signal message from the upstream feed.
type Frame struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Client wraps one WebSocket connection to the feed upstream.
type Client struct {
	url     string
	header  http.Header
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewClient creates a feed client for the given upstream. The token is
// sent as a bearer credential on the handshake.
func NewClient(url, token string) *Client {
	header := make(http.Header)
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Client{
		url:    url,
		header: header,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = conn
	log.Printf("✅ Connected to feed %s", c.url)
	return nil
}

// ReadFrame reads and decodes one JSON frame. Malformed frames return an
// error distinct from connection errors so the caller can skip them.
func (c *Client) ReadFrame() (*Frame, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("connection is nil")
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &DecodeError{Raw: data, Err: err}
	}
	return &frame, nil
}

// WritePing sends a keep-alive ping frame thread-safely.
func (c *Client) WritePing() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("connection is nil")
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// DecodeError marks a frame that arrived but could not be decoded. The
// connection itself is still healthy.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable feed frame (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
