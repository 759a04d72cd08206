package binance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("websocket client already started")

// WSClient maintains one subscription to the raw trade streams of a fixed symbol set.
//
// It runs a three-state machine: CONNECTING -> OPEN -> CLOSED, and CLOSED always
// returns to CONNECTING after the reconnect delay until the client is stopped.
// Each attempt dials a fresh connection; the handle is owned by the run loop.
type WSClient struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	handler        func([]byte)
	statusHandler  func(ConnectionStatus)
	logger         *zap.Logger

	mu       sync.Mutex
	status   ConnectionStatus
	conn     *websocket.Conn
	attempts int
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*WSClient)

func WithReconnectDelay(d time.Duration) Option {
	return func(c *WSClient) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *WSClient) {
		if d != nil {
			c.dialer = d
		}
	}
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *WSClient) {
		if d > 0 {
			dialer := *c.dialer
			dialer.HandshakeTimeout = d
			c.dialer = &dialer
		}
	}
}

// NewWSClient creates a client for the given streams (e.g. "btcusdt@trade").
// The streams are baked into the connection URL, so no subscribe message is sent.
func NewWSClient(baseURL string, streams []string, logger *zap.Logger, opts ...Option) *WSClient {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = DefaultHandshakeTimeout

	c := &WSClient{
		url:            StreamURL(baseURL, streams),
		dialer:         &dialer,
		reconnectDelay: DefaultReconnectDelay,
		logger:         logger,
		status:         StatusClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamURL joins stream names onto the raw-stream base URL.
func StreamURL(baseURL string, streams []string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(streams, "/")
}

func (c *WSClient) URL() string {
	return c.url
}

// SetMessageHandler sets the function to handle incoming messages.
// Must be called before Start.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// SetStatusHandler sets the function notified on every state transition.
// Must be called before Start.
func (c *WSClient) SetStatusHandler(h func(ConnectionStatus)) {
	c.statusHandler = h
}

// Status returns the current connection state.
func (c *WSClient) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *WSClient) IsOpen() bool {
	return c.Status() == StatusOpen
}

// Attempts returns the number of dial attempts made so far.
func (c *WSClient) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Start begins connecting in the background and returns immediately.
func (c *WSClient) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
	return nil
}

// Stop closes the active connection, suppresses further reconnects and waits
// for the run loop to exit.
func (c *WSClient) Stop() {
	c.mu.Lock()
	cancel, done, conn := c.cancel, c.done, c.conn
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	<-done
}

func (c *WSClient) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		c.setStatus(StatusConnecting)

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
			}
		} else {
			c.setConn(conn)
			c.setStatus(StatusOpen)
			c.logger.Info("WebSocket connected", zap.String("url", c.url))

			err = c.listen(ctx, conn)
			c.setConn(nil)
			_ = conn.Close()
			if ctx.Err() == nil {
				c.logger.Warn("WebSocket closed", zap.Error(err))
			}
		}

		c.setStatus(StatusClosed)
		if ctx.Err() != nil {
			c.logger.Info("WebSocket client stopped")
			return
		}

		c.logger.Info("Reconnecting", zap.Duration("delay", c.reconnectDelay))
		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("WebSocket client stopped")
			return
		case <-timer.C:
		}
	}
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// listen reads until the connection fails or ctx is cancelled. Each message is
// handed to the handler before the next read.
func (c *WSClient) listen(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}

func (c *WSClient) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *WSClient) setStatus(s ConnectionStatus) {
	c.mu.Lock()
	changed := c.status != s
	c.status = s
	c.mu.Unlock()

	if changed && c.statusHandler != nil {
		c.statusHandler(s)
	}
}
