package notify

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
)

// frame is an encoded message on its way to clients. Frames without a
// category reach every client; the rest only reach subscribers.
type frame struct {
	kind     string
	category Category
	data     []byte
}

// Hub maintains the set of connected clients and broadcasts frames to them.
// Run must be running for clients to connect.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan frame
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	now      func() time.Time
	log      *zap.Logger
}

type HubOption func(*Hub)

// WithCheckOrigin replaces the upgrader origin check. All origins are
// accepted by default.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan frame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
			EnableCompression: true,
			CheckOrigin:       func(*http.Request) bool { return true },
		},
		now: time.Now,
		log: logger.GetLoggerWith("notify.hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client. Lifecycle events are drained before broadcasts so a
// client registered before a publish always sees it.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case f := <-h.broadcast:
			h.fanOut(f)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	ConnectedClients.Set(float64(n))
	h.log.Info("client connected", zap.String("client", c.id), zap.Int("total_clients", n))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	ConnectedClients.Set(float64(n))
	h.log.Info("client disconnected", zap.String("client", c.id), zap.Int("total_clients", n))
}

// fanOut pushes f to every interested client without blocking. Clients whose
// queue is full are dropped; their pumps notice the closed queue and hang up.
func (h *Hub) fanOut(f frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].seq < clients[j].seq
	})

	var stale []*Client
	for _, c := range clients {
		if f.category != "" && !c.wants(f.category) {
			continue
		}
		select {
		case c.send <- f.data:
			MessagesTotal.WithLabelValues(f.kind).Inc()
		default:
			stale = append(stale, c)
		}
	}

	for _, c := range stale {
		close(c.send)
		delete(h.clients, c)
		DroppedTotal.WithLabelValues("client_queue_full").Inc()
		h.log.Warn("dropping slow client", zap.String("client", c.id))
	}
	if len(stale) > 0 {
		ConnectedClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	n := len(h.clients)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	ConnectedClients.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	h.log.Info("notification hub stopped", zap.String("reason", reason), zap.Int("clients_closed", n))
}

// sendTo queues data for one client if it is still registered.
func (h *Hub) sendTo(c *Client, kind string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- data:
		MessagesTotal.WithLabelValues(kind).Inc()
	default:
		DroppedTotal.WithLabelValues("client_queue_full").Inc()
	}
}

func (h *Hub) publish(f frame) {
	select {
	case h.broadcast <- f:
	default:
		DroppedTotal.WithLabelValues("broadcast_queue_full").Inc()
		h.log.Warn("broadcast channel full, dropping message", zap.String("type", f.kind))
	}
}

func (h *Hub) Notify(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = h.now()
	}
	if !n.Priority.Valid() {
		n.Priority = PriorityMedium
	}
	data, err := json.Marshal(Message{Type: TypeNotification, Payload: n})
	if err != nil {
		h.log.Error("failed to encode notification", zap.Error(err))
		return n
	}
	h.publish(frame{kind: TypeNotification, category: n.Category, data: data})
	h.log.Debug("notification published",
		zap.String("id", n.ID),
		zap.String("category", string(n.Category)),
		zap.String("priority", string(n.Priority)),
	)
	return n
}

func (h *Hub) Update(kind string, payload any) {
	data, err := json.Marshal(Message{Type: TypeUpdate, UpdateKind: kind, Payload: payload})
	if err != nil {
		h.log.Error("failed to encode update", zap.String("kind", kind), zap.Error(err))
		return
	}
	h.publish(frame{kind: TypeUpdate, data: data})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and attaches the connection to the hub. The
// first frame the client reads is the connection acknowledgement.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn)
	ack, err := json.Marshal(Message{
		Type:    TypeConnection,
		Payload: ConnectionAck{ClientID: c.id, Message: "Connected to notification service"},
	})
	if err != nil {
		h.log.Error("failed to encode connection ack", zap.Error(err))
		_ = conn.Close()
		return
	}
	c.send <- ack

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	c.start()
}

var _ Publisher = (*Hub)(nil)
