// Package socket implements the flow.Client interface over a WebSocket
// connection to the flow service. Requests and responses ride the same
// connection as JSON envelopes correlated by request id; a closed
// connection fails every in-flight call, reconnecting is left to process
// supervision.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/lantern-kg/lantern/pkg/logger"
)

const (
	defaultTimeout     = time.Minute
	defaultMaxRequests = 8
)

// ErrClosed reports a call on a client that has been closed.
var ErrClosed = errors.New("socket: client closed")

type envelope struct {
	ID      string          `json:"id"`
	Flow    string          `json:"flow,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// wsConn is the slice of *websocket.Conn the client uses.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a correlated request/response client on one WebSocket
// connection. It is safe for concurrent use.
//
// A Client should be created using NewClient.
type Client struct {
	conn    wsConn
	writeMu sync.Mutex

	reqLock *semaphore.Weighted
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan envelope
	closed  bool
	readErr error
}

// NewClientParams defines the configuration for creating a Client.
//
// URL is the flow service WebSocket endpoint and is required.
// Timeout bounds every individual call; MaxConcurrentRequests caps how
// many calls may be in flight at once.
type NewClientParams struct {
	URL                   string
	Timeout               time.Duration
	MaxConcurrentRequests int64
}

// NewClient dials the flow service and starts the read loop.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	if params.URL == "" {
		return nil, errors.New("socket: flow service url is required")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, params.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial flow service %s: %w", params.URL, err)
	}

	logger.Info("[Flow] Connected", "url", params.URL)
	return newClientWithConn(conn, params.Timeout, params.MaxConcurrentRequests), nil
}

func newClientWithConn(conn wsConn, timeout time.Duration, maxRequests int64) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRequests <= 0 {
		maxRequests = defaultMaxRequests
	}

	c := &Client{
		conn:    conn,
		reqLock: semaphore.NewWeighted(maxRequests),
		timeout: timeout,
		pending: map[string]chan envelope{},
	}
	go c.readLoop()
	return c
}

// Close tears down the connection. In-flight calls fail as the read
// loop winds down.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("flow connection lost: %w", err))
			return
		}

		var frame envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Debug("[Flow] Dropping malformed frame", "err", err)
			continue
		}

		c.mu.Lock()
		waiter, ok := c.pending[frame.ID]
		if ok {
			delete(c.pending, frame.ID)
		}
		c.mu.Unlock()

		if !ok {
			logger.Debug("[Flow] Dropping frame without waiter", "id", frame.ID)
			continue
		}
		waiter <- frame
	}
}

// fail ends every pending call with the read loop's terminal error.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr == nil {
		c.readErr = err
	}
	for id, waiter := range c.pending {
		delete(c.pending, id)
		close(waiter)
	}
}

// call sends one request and decodes its correlated response into out.
// A nil out discards the response payload.
func (c *Client) call(ctx context.Context, flowName string, payload any, out any) error {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return fmt.Errorf("%s request: %w", flowName, err)
	}
	defer c.reqLock.Release(1)

	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generate request id: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", flowName, err)
	}
	frame, err := json.Marshal(envelope{ID: id, Flow: flowName, Payload: data})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", flowName, err)
	}

	waiter := make(chan envelope, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return err
	}
	c.pending[id] = waiter
	c.mu.Unlock()

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("send %s request: %w", flowName, err)
	}

	select {
	case <-rCtx.Done():
		c.forget(id)
		return fmt.Errorf("%s request: %w", flowName, rCtx.Err())

	case response, ok := <-waiter:
		if !ok {
			c.mu.Lock()
			err := c.readErr
			c.mu.Unlock()
			if err == nil {
				err = ErrClosed
			}
			return fmt.Errorf("%s request: %w", flowName, err)
		}
		if response.Error != nil {
			return decodeError(flowName, response.Error)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(response.Payload, out); err != nil {
			return fmt.Errorf("decode %s response: %w", flowName, err)
		}
		return nil
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}
