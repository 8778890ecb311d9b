// Package common provides shared HTTP handler utilities.
package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/utils"
)

const (
	SSEKeepaliveInterval = 30 * time.Second
	SSEContentType       = "text/event-stream"

	// MaxInboxConnsPerUser bounds open streams per clerk.
	MaxInboxConnsPerUser = 5

	inboxBuffer = 32
)

type inboxConn struct {
	actor authorization.Actor
	send  chan []byte
}

// InboxHub fans workflow events out to the open SSE streams that may see
// them. Slow readers drop events rather than block delivery.
type InboxHub struct {
	mu      sync.RWMutex
	conns   map[string]*inboxConn
	perUser map[uint]int
	logger  logger.Interface
}

func NewInboxHub(log logger.Interface) *InboxHub {
	return &InboxHub{
		conns:   make(map[string]*inboxConn),
		perUser: make(map[uint]int),
		logger:  log,
	}
}

// Register opens a stream for actor. It fails once the user holds
// MaxInboxConnsPerUser streams.
func (h *InboxHub) Register(actor authorization.Actor) (string, <-chan []byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.perUser[actor.UserID] >= MaxInboxConnsPerUser {
		return "", nil, fmt.Errorf("too many open inbox streams")
	}
	connID := uuid.NewString()
	conn := &inboxConn{actor: actor, send: make(chan []byte, inboxBuffer)}
	h.conns[connID] = conn
	h.perUser[actor.UserID]++
	return connID, conn.send, nil
}

func (h *InboxHub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	close(conn.send)
	if h.perUser[conn.actor.UserID]--; h.perUser[conn.actor.UserID] <= 0 {
		delete(h.perUser, conn.actor.UserID)
	}
}

// ConnCount returns the number of open streams.
func (h *InboxHub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Deliver matches the pubsub handler signature.
func (h *InboxHub) Deliver(_ context.Context, event events.WorkflowEvent) {
	data, err := encodeSSE(event)
	if err != nil {
		h.logger.Warnw("failed to encode workflow event", "event_type", event.EventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, conn := range h.conns {
		if !canSee(conn.actor, event) {
			continue
		}
		select {
		case conn.send <- data:
		default:
			h.logger.Warnw("inbox stream full, dropping event", "conn_id", connID, "event_type", event.EventType)
		}
	}
}

// Handle lets the hub subscribe to an in-process dispatcher.
func (h *InboxHub) Handle(ctx context.Context, event events.DomainEvent) error {
	if wf, ok := event.(events.WorkflowEvent); ok {
		h.Deliver(ctx, wf)
	}
	return nil
}

// Administrators see everything. Everyone else sees their own
// sub-authority's traffic and events about their own actions.
func canSee(actor authorization.Actor, event events.WorkflowEvent) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	if event.ActorID == actor.UserID {
		return true
	}
	return event.SubAuthority == "" || event.SubAuthority == actor.SubAuthority
}

func encodeSSE(event events.WorkflowEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, payload)), nil
}

// StreamInbox handles GET /approvals/events.
func (h *InboxHub) StreamInbox(c *gin.Context) {
	actor, ok := RequireActor(c)
	if !ok {
		return
	}

	connID, send, err := h.Register(actor)
	if err != nil {
		utils.ErrorResponse(c, http.StatusTooManyRequests, err.Error())
		return
	}
	defer h.Unregister(connID)

	c.Header("Content-Type", SSEContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if _, err := c.Writer.WriteString(": connected\n\n"); err != nil {
		h.logger.Warnw("SSE initial write error", "conn_id", connID, "error", err)
		return
	}
	c.Writer.Flush()
	h.logger.Infow("inbox stream opened", "conn_id", connID, "user_id", actor.UserID)

	keepAlive := time.NewTicker(SSEKeepaliveInterval)
	defer keepAlive.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Infow("inbox stream closed by client", "conn_id", connID, "user_id", actor.UserID)
			return
		case data, ok := <-send:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(data); err != nil {
				h.logger.Warnw("inbox stream write error", "conn_id", connID, "error", err)
				return
			}
			c.Writer.Flush()
		case <-keepAlive.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				h.logger.Warnw("inbox stream keepalive error", "conn_id", connID, "error", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
