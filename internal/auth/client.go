package auth

import (
	"context"
	"errors"
	"sync"

	"modelhub-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Backend is the server-side auth surface a Client talks to
type Backend interface {
	SignUp(ctx context.Context, email, password, username string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// Client holds the signed-in account of one client session and
// broadcasts every change of it to registered listeners.
// Listeners run on the goroutine that caused the change.
type Client struct {
	backend Backend

	mu        sync.Mutex
	account   *models.Account
	token     string
	resolved  bool
	listeners map[uint64]func(*models.Account)
	nextID    uint64
}

// NewClient creates a new auth client
func NewClient(backend Backend) *Client {
	return &Client{
		backend:   backend,
		listeners: make(map[uint64]func(*models.Account)),
	}
}

// Resume restores a session from a stored token. An empty or rejected
// token resolves to no account; only backend failures are returned.
func (c *Client) Resume(ctx context.Context, token string) error {
	if token == "" {
		c.set(nil, "")
		return nil
	}

	account, err := c.backend.Authenticate(ctx, token)
	if err != nil {
		c.set(nil, "")
		if errors.Is(err, ErrInvalidToken) {
			log.Debug().Err(err).Msg("Stored session rejected")
			return nil
		}
		return err
	}

	c.set(account, token)
	return nil
}

// SignUp creates an account and signs it in
func (c *Client) SignUp(ctx context.Context, email, password, username string) (*models.Account, error) {
	creds, err := c.backend.SignUp(ctx, email, password, username)
	if err != nil {
		return nil, err
	}
	c.set(creds.Account, creds.Token)
	return creds.Account, nil
}

// SignIn signs an existing account in
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Account, error) {
	creds, err := c.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(creds.Account, creds.Token)
	return creds.Account, nil
}

// SignOut forgets the current account
func (c *Client) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.set(nil, "")
	return nil
}

// CurrentAccount returns the cached account, or nil when signed out
func (c *Client) CurrentAccount() *models.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// Token returns the session token of the current account
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnAuthStateChanged registers fn for every auth state change and returns
// a function that removes it. If the state is already known fn is called
// with it before OnAuthStateChanged returns.
func (c *Client) OnAuthStateChanged(fn func(*models.Account)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	resolved, account := c.resolved, c.account
	c.mu.Unlock()

	if resolved {
		fn(account)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) set(account *models.Account, token string) {
	c.mu.Lock()
	c.account = account
	c.token = token
	c.resolved = true
	listeners := make([]func(*models.Account), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(account)
	}
}
