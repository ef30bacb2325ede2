package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"modelhub-backend/internal/services"
	"modelhub-backend/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Session request types accepted over the websocket
const (
	RequestLogin          = "login"
	RequestSignup         = "signup"
	RequestLogout         = "logout"
	RequestRefreshProfile = "refresh_profile"
	RequestCreateProfile  = "create_profile"
	RequestRefreshAuth    = "refresh_auth"
)

// SessionRequest is a client request on the session websocket
type SessionRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
	Username  string `json:"username,omitempty"`
}

// SessionHandler serves long-lived sessions over a websocket. The
// connection joins the hub under whichever account is signed in.
type SessionHandler struct {
	sessions *session.Factory
	hub      *services.WSHub
}

// NewSessionHandler creates a new session websocket handler
func NewSessionHandler(sessions *session.Factory, hub *services.WSHub) *SessionHandler {
	return &SessionHandler{sessions: sessions, hub: hub}
}

// hubBinding keeps one connection registered under the current account
type hubBinding struct {
	mu        sync.Mutex
	hub       *services.WSHub
	conn      *services.WSConn
	accountID string
}

func (b *hubBinding) follow(account string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account == b.accountID {
		return
	}
	if b.accountID != "" {
		b.hub.Unregister(b.accountID, b.conn)
	}
	if account != "" {
		b.hub.Register(account, b.conn)
	}
	b.accountID = account
}

// HandleWebSocket handles GET /ws
func (h *SessionHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn := services.NewWSConn(ws)
	defer conn.Close()

	ctx := r.Context()
	s := h.sessions.Open(ctx, r.URL.Query().Get("token"))
	defer s.Close()

	binding := &hubBinding{hub: h.hub, conn: conn}
	defer binding.follow("")

	push := func(snap session.Snapshot) {
		accountID := ""
		if snap.Account != nil {
			accountID = snap.Account.ID
		}
		binding.follow(accountID)

		if err := conn.Send(services.WSMessage{Type: services.MessageSessionState, Data: snap}); err != nil {
			log.Debug().Err(err).Msg("Failed to push session state")
		}
	}
	cancel := s.Manager.Subscribe(push)
	defer cancel()
	push(s.Manager.Snapshot())

	log.Info().Str("state", string(s.Manager.Snapshot().State)).Msg("WebSocket session established")

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket error")
			}
			return
		}

		var req SessionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			sendError(conn, "", "Invalid message format")
			continue
		}

		res, ok := h.dispatch(ctx, s, req)
		if !ok {
			sendError(conn, req.RequestID, "Unknown message type")
			continue
		}
		if err := conn.Send(services.WSMessage{
			Type:      services.MessageResult,
			RequestID: req.RequestID,
			Data:      res,
		}); err != nil {
			log.Error().Err(err).Str("type", req.Type).Msg("Failed to send result")
			return
		}
	}
}

func (h *SessionHandler) dispatch(ctx context.Context, s *session.Session, req SessionRequest) (session.Result, bool) {
	switch req.Type {
	case RequestLogin:
		return s.Manager.Login(ctx, req.Email, req.Password), true
	case RequestSignup:
		return s.Manager.Signup(ctx, req.Email, req.Password, req.Username), true
	case RequestLogout:
		return s.Manager.Logout(ctx), true
	case RequestRefreshProfile:
		return s.Manager.RefreshProfile(ctx), true
	case RequestCreateProfile:
		return s.Manager.CreateProfile(ctx), true
	case RequestRefreshAuth:
		return s.Manager.RefreshAuth(ctx), true
	default:
		return session.Result{}, false
	}
}

// sendError sends an error message to the WebSocket connection
func sendError(conn *services.WSConn, requestID, message string) {
	msg := services.WSMessage{
		Type:      services.MessageError,
		RequestID: requestID,
		Message:   message,
	}
	if err := conn.Send(msg); err != nil {
		log.Error().Err(err).Msg("Failed to send error message")
	}
}
