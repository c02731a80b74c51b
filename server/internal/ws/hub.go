package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/qubicdash/qubicdash/server/internal/api"
	"github.com/qubicdash/qubicdash/server/internal/i18n"
	"github.com/qubicdash/qubicdash/server/internal/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection
	// as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// EventDashboard is the event name of every broadcast.
	EventDashboard = "dashboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are checked by the CORS layer in front of the hub.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Source builds the dashboard document in a given language.
type Source interface {
	Dashboard(lang i18n.Lang) api.DashboardResponse
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string                `json:"event"`
	Data  api.DashboardResponse `json:"data"`
}

// Options configures a Hub.
type Options struct {
	Interval time.Duration
	Language i18n.Lang         // used when a client states no preference
	Metrics  *metrics.Registry // optional
}

// Hub manages WebSocket clients and pushes the dashboard to each of them,
// in the client's language, every interval.
type Hub struct {
	src  Source
	opts Options

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	lang i18n.Lang
	send chan []byte
}

// New creates a Hub reading from src.
func New(src Source, opts Options) *Hub {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Language == "" {
		opts.Language = i18n.English
	}
	return &Hub{src: src, opts: opts, clients: make(map[*client]struct{})}
}

// Run broadcasts every interval until ctx is cancelled, then closes all
// connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the connection, sends the dashboard immediately and then
// keeps the client subscribed to broadcasts. The language comes from ?lang=
// or Accept-Language. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lang := i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), h.opts.Language)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{conn: conn, lang: lang, send: make(chan []byte, sendBufSize)}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.buildMessage(lang); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.gauge(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.gauge(n)
}

func (h *Hub) gauge(n int) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.Set(metrics.StreamClients, float64(n))
	}
}

func (h *Hub) broadcast() {
	h.mu.RLock()
	langs := make(map[i18n.Lang]struct{})
	for c := range h.clients {
		langs[c.lang] = struct{}{}
	}
	h.mu.RUnlock()

	// One document per language per tick, built without holding the lock.
	encoded := make(map[i18n.Lang][]byte, len(langs))
	for lang := range langs {
		data, err := h.buildMessage(lang)
		if err != nil {
			slog.Error("ws: encode dashboard", "lang", lang, "err", err)
			continue
		}
		encoded[lang] = data
	}

	// send is only closed under h.mu, so every client still in the map has
	// an open channel here. Clients that joined meanwhile already got the
	// document on connect.
	h.mu.Lock()
	for c := range h.clients {
		data, ok := encoded[c.lang]
		if !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Outgoing buffer full; drop the client.
			delete(h.clients, c)
			close(c.send)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.gauge(n)
}

func (h *Hub) buildMessage(lang i18n.Lang) ([]byte, error) {
	return sonic.Marshal(Message{Event: EventDashboard, Data: h.src.Dashboard(lang)})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	h.gauge(0)
}

// writePump forwards queued messages to the connection and sends pings.
// Runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. Blocks until the
// connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
