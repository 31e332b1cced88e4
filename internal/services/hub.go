package services

import (
	"context"
	"sync"
	"time"

	"gymcore-backend-go/internal/observability"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds a single feed write so a stalled socket cannot hold up
// delivery to everyone else.
const writeWait = 5 * time.Second

// PointsHub fans committed balance changes out to websocket subscribers.
// Users receive their own changes; super admins receive all of them.
type PointsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]policy.Principal
	ch      chan points.Change
	log     *zap.Logger
	wait    time.Duration
}

func NewPointsHub(log *zap.Logger) *PointsHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &PointsHub{
		clients: map[*websocket.Conn]policy.Principal{},
		ch:      make(chan points.Change, 64),
		log:     log,
		wait:    writeWait,
	}
}

func (h *PointsHub) Run(ctx context.Context) error {
	for {
		select {
		case change := <-h.ch:
			h.deliver(change)
		case <-ctx.Done():
			h.closeAll()
			return nil
		}
	}
}

// PointsChanged queues changes for delivery. Changes are dropped when the
// queue is full; subscribers can reload their balance from /api/me.
func (h *PointsHub) PointsChanged(_ context.Context, changes []points.Change) {
	for _, c := range changes {
		select {
		case h.ch <- c:
		default:
			h.log.Warn("points_feed_dropped", zap.String("user_id", c.UserID))
		}
	}
}

func (h *PointsHub) deliver(change points.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, p := range h.clients {
		if !p.IsSuperAdmin() && p.ID != change.UserID {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(h.wait))
		if err := conn.WriteJSON(change); err != nil {
			h.log.Debug("points_feed_write_failed", zap.String("user_id", p.ID), zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	observability.SetPointsSubscribers(len(h.clients))
}

func (h *PointsHub) Add(conn *websocket.Conn, p policy.Principal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = p
	observability.SetPointsSubscribers(len(h.clients))
}

func (h *PointsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	observability.SetPointsSubscribers(len(h.clients))
}

// Subscribers reports how many sockets are connected.
func (h *PointsHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *PointsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	observability.SetPointsSubscribers(0)
}
