// Package telemetry publishes each cycle's status snapshots to websocket
// observers. The hub owns the client set; every published cycle is fanned out
// as one JSON message, and slow clients are dropped rather than allowed to
// stall the loop.
package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
	"github.com/signalsfoundry/dome-simulator/internal/sim/state"
)

// ClientGauge tracks the connected client count.
// *observability.DomeCollector satisfies it.
type ClientGauge interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub fans snapshot messages out to the connected websocket clients.
type Hub struct {
	log   logging.Logger
	gauge ClientGauge

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*client]bool

	done     chan struct{}
	upgrader websocket.Upgrader
}

// HubOption customises Hub construction.
type HubOption func(*Hub)

// WithClientGauge attaches a connected-client gauge.
func WithClientGauge(g ClientGauge) HubOption {
	return func(h *Hub) {
		h.gauge = g
	}
}

// NewHub builds an idle hub; call Run to start the fan-out loop.
func NewHub(log logging.Logger, opts ...HubOption) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	h := &Hub{
		log:        log,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]bool),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The simulator serves trusted lab dashboards.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run drives registration and broadcast until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll(ctx)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			if h.gauge != nil {
				h.gauge.ClientConnected()
			}
			h.log.Info(ctx, "telemetry client connected",
				logging.String("remote", c.remote),
				logging.Int("clients", count),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			removed := h.clients[c]
			if removed {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if removed {
				if h.gauge != nil {
					h.gauge.ClientDisconnected()
				}
				h.log.Info(ctx, "telemetry client disconnected",
					logging.String("remote", c.remote),
					logging.Int("clients", count),
				)
			}

		case msg := <-h.broadcast:
			var dead []*client
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					dead = append(dead, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range dead {
				h.log.Warn(ctx, "dropping slow telemetry client",
					logging.String("remote", c.remote),
				)
				h.drop(c)
			}
		}
	}
}

// PublishSnapshots satisfies the state package's SnapshotPublisher interface:
// each telemetry cycle's snapshots become one broadcast message.
func (h *Hub) PublishSnapshots(snaps state.CycleSnapshots) {
	raw, err := json.Marshal(snaps)
	if err != nil {
		h.log.Error(context.Background(), "marshal snapshots failed",
			logging.String("error", err.Error()),
		)
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		// Hub not running or saturated; drop this cycle rather than block
		// the telemetry loop.
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches the new client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed",
			logging.String("error", err.Error()),
		)
		return
	}
	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	removed := h.clients[c]
	if removed {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if removed && h.gauge != nil {
		h.gauge.ClientDisconnected()
	}
	c.conn.Close()
}

func (h *Hub) closeAll(ctx context.Context) {
	close(h.done)
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		c.conn.Close()
		if h.gauge != nil {
			h.gauge.ClientDisconnected()
		}
	}
	if len(clients) > 0 {
		h.log.Info(ctx, "telemetry hub stopped", logging.Int("clients_closed", len(clients)))
	}
}
