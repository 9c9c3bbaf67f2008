package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

var clientSeq atomic.Uint64

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	id   string
	seq  uint64 // registration order, keeps fan-out deterministic
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[Category]bool // nil means every category
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		seq:  clientSeq.Add(1),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

func (c *Client) wants(cat Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs == nil || c.subs[cat]
}

// subscribe replaces the category filter. A list that names "all", or no
// valid category at all, subscribes to everything.
func (c *Client) subscribe(cats []Category) {
	subs := make(map[Category]bool)
	for _, cat := range cats {
		if cat == CategoryAll {
			subs = nil
			break
		}
		if cat.Valid() {
			subs[cat] = true
		}
	}
	if len(subs) == 0 {
		subs = nil
	}
	c.mu.Lock()
	c.subs = subs
	c.mu.Unlock()
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	log := c.hub.log.With(zap.String("client", c.id))
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("failed to set read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected websocket close", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("ignoring malformed client message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case TypeSubscribe:
			c.subscribe(msg.Categories)
			log.Debug("subscription changed", zap.Any("categories", msg.Categories))
		case TypePing:
			now := c.hub.now()
			pong, err := json.Marshal(Message{Type: TypePong, Timestamp: &now})
			if err != nil {
				continue
			}
			c.hub.sendTo(c, TypePong, pong)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// the hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
