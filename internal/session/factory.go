package session

import (
	"context"

	"modelhub-backend/internal/auth"

	"github.com/rs/zerolog/log"
)

// Session pairs the auth client of one client session with its manager
type Session struct {
	Auth    *auth.Client
	Manager *Manager
}

// Close releases the manager
func (s *Session) Close() {
	s.Manager.Close()
}

// Factory builds sessions sharing one auth backend and profile store
type Factory struct {
	backend  auth.Backend
	profiles ProfileStore
	opts     Options
}

// NewFactory creates a new session factory
func NewFactory(backend auth.Backend, profiles ProfileStore, opts Options) *Factory {
	return &Factory{backend: backend, profiles: profiles, opts: opts}
}

// Open starts a session and resumes it from token. An empty token opens
// a signed-out session. Backend failures while resuming are logged and
// leave the session signed out.
func (f *Factory) Open(ctx context.Context, token string) *Session {
	client := auth.NewClient(f.backend)
	manager := NewManager(client, f.profiles, f.opts)
	manager.Start(ctx)

	if err := client.Resume(ctx, token); err != nil {
		log.Error().Err(err).Msg("Failed to resume session")
	}

	return &Session{Auth: client, Manager: manager}
}
