package notifications

import (
	"sync"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

// connBuffer bounds how many undelivered events a single connection may
// hold; a full buffer counts as a delivery failure.
const connBuffer = 16

// Hub is the registry of live per-user connections. It is mutated from two
// directions at once: session lifecycle (Connect/Disconnect) and event
// fan-out (Broadcast). Each user carries their own lock so unrelated users
// never serialize.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]*userConnections
	logger *zap.Logger
}

type userConnections struct {
	mu    sync.Mutex
	conns map[*Connection]struct{}
}

func NewHub(l *zap.Logger) *Hub {
	return &Hub{
		users:  make(map[string]*userConnections),
		logger: l,
	}
}

// Connect registers a new live connection for the user. Ownership of the
// handle transfers to the calling session until Disconnect.
func (h *Hub) Connect(userID string) *Connection {
	conn := &Connection{
		userID: userID,
		events: make(chan *domain.OrderEvent, connBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	uc, ok := h.users[userID]
	if !ok {
		uc = &userConnections{conns: make(map[*Connection]struct{})}
		h.users[userID] = uc
	}
	h.mu.Unlock()

	uc.mu.Lock()
	uc.conns[conn] = struct{}{}
	total := len(uc.conns)
	uc.mu.Unlock()

	h.logger.Info("Device connected for user",
		zap.String("user_id", userID),
		zap.Int("total", total))
	return conn
}

// Disconnect removes the connection and closes it. Removing an already
// absent handle is a no-op.
func (h *Hub) Disconnect(userID string, conn *Connection) {
	h.mu.RLock()
	uc := h.users[userID]
	h.mu.RUnlock()
	if uc == nil {
		return
	}

	uc.mu.Lock()
	_, present := uc.conns[conn]
	delete(uc.conns, conn)
	remaining := len(uc.conns)
	uc.mu.Unlock()

	if !present {
		return
	}
	conn.close()
	h.logger.Info("Device disconnected for user",
		zap.String("user_id", userID),
		zap.Int("remaining", remaining))
}

// Broadcast delivers the event to every live connection of the user. An
// event for a user with no connections is dropped; delivery is live-only
// and never buffered for late joiners. A failing connection is removed
// without affecting delivery to the user's other devices.
func (h *Hub) Broadcast(userID string, event *domain.OrderEvent) {
	h.mu.RLock()
	uc := h.users[userID]
	h.mu.RUnlock()
	if uc == nil {
		h.logger.Debug("No connected devices for user", zap.String("user_id", userID))
		return
	}

	conns := uc.snapshot()
	if len(conns) == 0 {
		h.logger.Debug("No connected devices for user", zap.String("user_id", userID))
		return
	}

	for _, conn := range conns {
		if err := conn.send(event); err != nil {
			h.logger.Warn("Dropping connection after failed delivery",
				zap.String("user_id", userID),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
			h.Disconnect(userID, conn)
			continue
		}
		h.logger.Debug("Pushed order event to device",
			zap.String("user_id", userID),
			zap.String("order_id", event.OrderID))
	}
}

// ConnectionCount reports the number of live connections for the user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	uc := h.users[userID]
	h.mu.RUnlock()
	if uc == nil {
		return 0
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.conns)
}

// snapshot copies the connection set so fan-out runs outside the user lock.
func (uc *userConnections) snapshot() []*Connection {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	conns := make([]*Connection, 0, len(uc.conns))
	for conn := range uc.conns {
		conns = append(conns, conn)
	}
	return conns
}
