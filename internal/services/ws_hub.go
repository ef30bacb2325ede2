package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"modelhub-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message types pushed over the session websocket
const (
	MessageResult          = "result"
	MessageSessionState    = "session_state"
	MessageModelDownloaded = "model_downloaded"
	MessageError           = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageWriter is the write side of a websocket connection
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSConn serializes writes to one websocket connection
type WSConn struct {
	mu   sync.Mutex
	conn MessageWriter
}

// NewWSConn wraps a websocket connection
func NewWSConn(conn MessageWriter) *WSConn {
	return &WSConn{conn: conn}
}

// Send writes a message as JSON text
func (c *WSConn) Send(message WSMessage) error {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (c *WSConn) Close() error {
	return c.conn.Close()
}

// WSHub tracks the open session connections of each account
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]map[*WSConn]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]map[*WSConn]struct{}),
	}
}

// Register attaches a connection to an account
func (h *WSHub) Register(accountID string, conn *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[accountID]
	if !ok {
		conns = make(map[*WSConn]struct{})
		h.connections[accountID] = conns
	}
	conns[conn] = struct{}{}

	log.Info().Str("user_id", accountID).Int("connections", len(conns)).Msg("WebSocket connection registered")
}

// Unregister detaches a connection from an account
func (h *WSHub) Unregister(accountID string, conn *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[accountID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.connections, accountID)
	}

	log.Info().Str("user_id", accountID).Msg("WebSocket connection unregistered")
}

// IsOnline checks if an account has at least one open connection
func (h *WSHub) IsOnline(accountID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[accountID]) > 0
}

// SendToAccount sends a message to every connection of an account and
// reports how many received it. Connections that fail are dropped.
func (h *WSHub) SendToAccount(accountID string, message WSMessage) (int, error) {
	h.mu.RLock()
	conns := make([]*WSConn, 0, len(h.connections[accountID]))
	for conn := range h.connections[accountID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return 0, fmt.Errorf("user %s is not connected", accountID)
	}

	delivered := 0
	var lastErr error
	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			lastErr = err
			h.Unregister(accountID, conn)
			conn.Close()
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return 0, lastErr
	}
	return delivered, nil
}

// NotifyModelDownloaded pushes a download notice to the model owner
func (h *WSHub) NotifyModelDownloaded(tally *models.DownloadTally, downloaderID string) error {
	message := WSMessage{
		Type: MessageModelDownloaded,
		Data: map[string]interface{}{
			"model_id":        tally.ModelID,
			"title":           tally.Title,
			"downloads_count": tally.DownloadsCount,
			"downloader_id":   downloaderID,
		},
	}
	_, err := h.SendToAccount(tally.OwnerID, message)
	return err
}
