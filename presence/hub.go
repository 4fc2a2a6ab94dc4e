package presence

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"tandem-server/models"
)

var onlineAccounts = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tandem_presence_online_accounts",
	Help: "Accounts with at least one live presence connection",
})

const (
	statusWriteTimeout = 5 * time.Second

	// PingInterval is how often Heartbeat pings each connection.
	PingInterval = 30 * time.Second
	// PongWait bounds how long a connection may stay silent before reads fail.
	PongWait = 2*PingInterval + 10*time.Second
)

// StatusWriter persists an account's presence status.
type StatusWriter interface {
	SetPresence(ctx context.Context, accountID string, status models.PresenceStatus) error
}

// Connection wraps websocket.Conn with the owning account.
type Connection struct {
	Conn      *websocket.Conn
	AccountID string

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch records activity on the connection.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Hub counts live connections per account. The first connection of an
// account marks its Member online and the last disconnect marks it offline.
// Status writes run outside the hub lock, one queue per account, so a slow
// store delays only that account's writes and never reorders them.
type Hub struct {
	mu          sync.Mutex
	connections map[string]map[*Connection]struct{}
	pending     map[string][]models.PresenceStatus
	writes      sync.WaitGroup
	writer      StatusWriter
	logger      *zap.Logger
}

func NewHub(writer StatusWriter, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*Connection]struct{}),
		pending:     make(map[string][]models.PresenceStatus),
		writer:      writer,
		logger:      logger,
	}
}

// Add registers a connection for accountID.
func (h *Hub) Add(accountID string, conn *websocket.Conn) *Connection {
	c := &Connection{Conn: conn, AccountID: accountID, lastSeen: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[accountID]
	if !ok {
		conns = make(map[*Connection]struct{})
		h.connections[accountID] = conns
	}
	conns[c] = struct{}{}
	if len(conns) == 1 {
		onlineAccounts.Inc()
		h.enqueueStatus(accountID, models.StatusOnline)
	}
	h.logger.Debug("Presence connected", zap.String("account_id", accountID), zap.Int("connections", len(conns)))
	return c
}

// Remove unregisters and closes c. Removing twice is a no-op.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.AccountID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
	if len(conns) == 0 {
		delete(h.connections, c.AccountID)
		onlineAccounts.Dec()
		h.enqueueStatus(c.AccountID, models.StatusOffline)
	}
	h.logger.Debug("Presence disconnected", zap.String("account_id", c.AccountID), zap.Int("connections", len(conns)))
}

// Online reports whether accountID has any live connection.
func (h *Hub) Online(accountID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[accountID]) > 0
}

// Heartbeat pings every connection each interval and drops the ones that
// have not answered within two intervals. It returns when ctx is done.
func (h *Hub) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var stale, live []*Connection
		h.mu.Lock()
		for _, conns := range h.connections {
			for c := range conns {
				if time.Since(c.LastSeen()) > 2*interval {
					stale = append(stale, c)
				} else {
					live = append(live, c)
				}
			}
		}
		h.mu.Unlock()

		for _, c := range stale {
			h.Remove(c)
		}
		for _, c := range live {
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				h.Remove(c)
			}
		}
	}
}

// CloseAll drops every connection, marking their accounts offline, and waits
// for queued status writes to finish.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []*Connection
	for _, conns := range h.connections {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		h.Remove(c)
	}
	h.Wait()
}

// Wait blocks until every queued status write has been applied.
func (h *Hub) Wait() {
	h.writes.Wait()
}

// enqueueStatus must be called with h.mu held. A drain goroutine is started
// when the account has no queue yet; later calls append to it.
func (h *Hub) enqueueStatus(accountID string, status models.PresenceStatus) {
	queue, draining := h.pending[accountID]
	h.pending[accountID] = append(queue, status)
	if draining {
		return
	}
	h.writes.Add(1)
	go h.drain(accountID)
}

func (h *Hub) drain(accountID string) {
	defer h.writes.Done()
	for {
		h.mu.Lock()
		queue := h.pending[accountID]
		if len(queue) == 0 {
			delete(h.pending, accountID)
			h.mu.Unlock()
			return
		}
		status := queue[0]
		h.pending[accountID] = queue[1:]
		h.mu.Unlock()

		h.writeStatus(accountID, status)
	}
}

func (h *Hub) writeStatus(accountID string, status models.PresenceStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()
	if err := h.writer.SetPresence(ctx, accountID, status); err != nil {
		h.logger.Warn("Failed to record presence",
			zap.String("account_id", accountID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
