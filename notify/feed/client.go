package feed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/notify"
)

const (
	ReconnectDelay = 3 * time.Second
	PingInterval   = 30 * time.Second
	writeWait      = 10 * time.Second
)

// inbound mirrors notify.Message with the payload left undecoded.
type inbound struct {
	Type       string          `json:"type"`
	UpdateKind string          `json:"updateKind"`
	Payload    json.RawMessage `json:"payload"`
}

type ClientOption func(*Client)

func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithReconnectDelay overrides the fixed wait between connection attempts.
func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectDelay = d
	}
}

func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pingInterval = d
	}
}

// Client keeps one websocket session to the notification channel open and
// feeds what arrives into a Feed.
type Client struct {
	url  string
	feed *Feed

	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	pingInterval   time.Duration
	connected      atomic.Bool
	log            *zap.Logger
}

func NewClient(url string, f *Feed, opts ...ClientOption) *Client {
	c := &Client{
		url:            url,
		feed:           f,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: ReconnectDelay,
		pingInterval:   PingInterval,
		log:            logger.GetLoggerWith("notify.feed", zap.String("url", url)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects and reconnects at a fixed delay, without an attempt cap,
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("notification channel closed, reconnecting",
			zap.Error(err), zap.Duration("delay", c.reconnectDelay))

		t := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := c.write(conn, notify.Message{
		Type:       notify.TypeSubscribe,
		Categories: []notify.Category{notify.CategoryAll},
	}); err != nil {
		return err
	}
	c.connected.Store(true)
	defer c.connected.Store(false)
	c.log.Info("connected to notification channel")

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(conn)
	}()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
			<-readErr
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ticker.C:
			if err := c.write(conn, notify.Message{Type: notify.TypePing}); err != nil {
				_ = conn.Close()
				<-readErr
				return err
			}
		}
	}
}

func (c *Client) write(conn *websocket.Conn, msg notify.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg inbound) {
	switch msg.Type {
	case notify.TypeNotification:
		var n notify.Notification
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			c.log.Debug("dropping notification", zap.Error(err))
			return
		}
		c.feed.Add(n)
	case notify.TypeUpdate:
		c.feed.update(msg.UpdateKind, msg.Payload)
	case notify.TypeConnection, notify.TypePong:
	default:
		c.log.Debug("unknown frame type", zap.String("type", msg.Type))
	}
}
