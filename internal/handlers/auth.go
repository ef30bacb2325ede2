package handlers

import (
	"net/http"

	"modelhub-backend/internal/auth"
	"modelhub-backend/internal/middleware"
	"modelhub-backend/internal/session"

	"github.com/rs/zerolog/log"
)

// AuthHandler serves sign up, sign in and session inspection over REST.
// Each request runs its own short-lived session.
type AuthHandler struct {
	sessions *session.Factory
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Factory) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Username        string `json:"username"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes a session after an auth operation
type SessionResponse struct {
	Result  *session.Result  `json:"result,omitempty"`
	Session session.Snapshot `json:"session"`
	Token   string           `json:"token,omitempty"`
	Error   *string          `json:"error"`
}

func (h *AuthHandler) open(r *http.Request) *session.Session {
	token, _ := middleware.BearerToken(r)
	s := h.sessions.Open(r.Context(), token)
	select {
	case <-s.Manager.Ready():
	case <-r.Context().Done():
	}
	return s
}

func respondSession(w http.ResponseWriter, statusCode int, s *session.Session, res *session.Result) {
	resp := SessionResponse{
		Result:  res,
		Session: s.Manager.Snapshot(),
		Token:   s.Auth.Token(),
	}
	if res != nil && !res.Success {
		resp.Error = &res.Error
		if statusCode = errorStatus(res.Err()); statusCode == http.StatusInternalServerError {
			log.Error().Err(res.Err()).Msg("Session operation failed")
			msg := internalErrorMessage
			resp.Error = &msg
			res.Error = msg
		}
	}
	respondJSON(w, statusCode, resp)
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, "session", err)
		return
	}
	if err := auth.ValidateSignup(req.Email, req.Password, req.ConfirmPassword, req.Username); err != nil {
		respondFailure(w, "session", err)
		return
	}

	s := h.open(r)
	defer s.Close()

	res := s.Manager.Signup(r.Context(), req.Email, req.Password, req.Username)
	if res.Success {
		log.Info().Str("user_id", s.Auth.CurrentAccount().ID).Msg("Account created")
	}
	respondSession(w, http.StatusCreated, s, &res)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, "session", err)
		return
	}

	s := h.open(r)
	defer s.Close()

	res := s.Manager.Login(r.Context(), req.Email, req.Password)
	respondSession(w, http.StatusOK, s, &res)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := h.open(r)
	defer s.Close()
	respondSession(w, http.StatusOK, s, nil)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := h.open(r)
	defer s.Close()

	res := s.Manager.Logout(r.Context())
	respondSession(w, http.StatusOK, s, &res)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s := h.open(r)
	defer s.Close()

	res := s.Manager.RefreshAuth(r.Context())
	respondSession(w, http.StatusOK, s, &res)
}

// CreateProfile handles POST /api/v1/profiles/me
func (h *AuthHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	s := h.open(r)
	defer s.Close()

	res := s.Manager.CreateProfile(r.Context())
	respondSession(w, http.StatusOK, s, &res)
}
