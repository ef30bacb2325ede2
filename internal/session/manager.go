package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"modelhub-backend/internal/metrics"
	"modelhub-backend/internal/models"
	"modelhub-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// DefaultInitTimeout bounds how long a manager stays initializing
const DefaultInitTimeout = 5 * time.Second

var (
	ErrNotSignedIn    = errors.New("No user logged in")
	ErrClosed         = errors.New("session closed")
	errProfileMissing = errors.New("Failed to create profile")
)

// Authenticator is the auth surface of one client session
type Authenticator interface {
	OnAuthStateChanged(fn func(*models.Account)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*models.Account, error)
	SignUp(ctx context.Context, email, password, username string) (*models.Account, error)
	SignOut(ctx context.Context) error
	CurrentAccount() *models.Account
}

// Options configures a Manager
type Options struct {
	InitTimeout time.Duration
	Metrics     metrics.Recorder
}

// Manager owns the account and profile of one client session.
// Listeners registered with Subscribe are called one at a time and must
// not call back into the Manager.
type Manager struct {
	auth     Authenticator
	profiles ProfileStore
	metrics  metrics.Recorder
	timeout  time.Duration

	mu          sync.Mutex
	ctx         context.Context
	state       State
	account     *models.Account
	profile     *models.Profile
	pending     int
	gen         uint64
	initialized bool
	started     bool
	closed      bool
	ready       chan struct{}
	timer       *time.Timer
	unsubscribe func()

	notifyMu  sync.Mutex
	listeners map[uint64]func(Snapshot)
	nextID    uint64
}

// NewManager creates a new session manager in the initializing state
func NewManager(auth Authenticator, profiles ProfileStore, opts Options) *Manager {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Manager{
		auth:      auth,
		profiles:  profiles,
		metrics:   opts.Metrics,
		timeout:   opts.InitTimeout,
		ctx:       context.Background(),
		state:     StateInitializing,
		ready:     make(chan struct{}),
		listeners: make(map[uint64]func(Snapshot)),
	}
}

// Start subscribes to auth state changes and arms the initialization
// deadline. ctx scopes the profile lookups triggered by auth events.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.ctx = ctx
	m.timer = time.AfterFunc(m.timeout, m.forceInitialized)
	m.mu.Unlock()

	unsubscribe := m.auth.OnAuthStateChanged(m.handleAuthEvent)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsubscribe()
		return
	}
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

// Close releases the auth subscription and stops the deadline timer
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
	}
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Ready is closed once the manager has left the initializing phase
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Snapshot returns the current session state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:   m.state,
		Account: m.account,
		Profile: m.profile,
		Loading: !m.initialized || m.pending > 0,
	}
}

// Subscribe registers fn for every state change and returns a cancel func
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.notifyMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.notifyMu.Lock()
			delete(m.listeners, id)
			m.notifyMu.Unlock()
		})
	}
}

func (m *Manager) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	snap := m.Snapshot()
	for _, fn := range m.listeners {
		fn(snap)
	}
}

// setStateLocked must be called with mu held
func (m *Manager) setStateLocked(state State) {
	if m.state == state {
		return
	}
	log.Debug().Str("from", string(m.state)).Str("to", string(state)).Msg("Session state changed")
	m.state = state
	m.metrics.RecordSessionState(string(state))
}

func (m *Manager) markInitializedLocked() {
	if m.initialized {
		return
	}
	m.initialized = true
	if m.timer != nil {
		m.timer.Stop()
	}
	close(m.ready)
}

func (m *Manager) forceInitialized() {
	m.mu.Lock()
	if m.initialized || m.closed {
		m.mu.Unlock()
		return
	}
	switch m.state {
	case StateInitializing:
		m.setStateLocked(StateUnauthenticated)
	case StateAccountKnown:
		m.setStateLocked(StateAuthenticatedWithoutProfile)
	}
	m.markInitializedLocked()
	state := m.state
	m.mu.Unlock()

	log.Warn().Dur("timeout", m.timeout).Str("state", string(state)).Msg("Session initialization timed out")
	m.notify()
}

func (m *Manager) handleAuthEvent(account *models.Account) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	m.sync(ctx, account)
}

// sync moves the session to account and resolves its profile
func (m *Manager) sync(ctx context.Context, account *models.Account) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen

	if account == nil {
		m.account = nil
		m.profile = nil
		m.setStateLocked(StateUnauthenticated)
		m.markInitializedLocked()
		m.mu.Unlock()
		m.notify()
		return
	}

	if m.account == nil || m.account.ID != account.ID {
		m.profile = nil
	}
	m.account = account
	m.setStateLocked(StateAccountKnown)
	m.pending++
	m.mu.Unlock()
	m.notify()

	res := m.resolve(ctx, account)

	m.mu.Lock()
	m.pending--
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.applyResolutionLocked(account, res)
	m.markInitializedLocked()
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) resolve(ctx context.Context, account *models.Account) (res ProfileResolution) {
	defer func() {
		if r := recover(); r != nil {
			res = ProfileResolution{Kind: ProfileFailed, Err: fmt.Errorf("profile resolution panicked: %v", r)}
		}
	}()
	return ResolveProfile(ctx, m.profiles, account)
}

func (m *Manager) applyResolutionLocked(account *models.Account, res ProfileResolution) {
	switch res.Kind {
	case ProfileFound:
		m.profile = res.Profile
		m.setStateLocked(StateAuthenticatedWithProfile)
	case ProfileCreatedFallback:
		log.Info().Str("user_id", account.ID).AnErr("fetch_error", res.FetchErr).Msg("Created missing profile")
		m.profile = res.Profile
		m.setStateLocked(StateAuthenticatedWithProfile)
	default:
		log.Error().Err(res.Err).Str("user_id", account.ID).Msg("Failed to resolve profile")
		m.profile = nil
		m.setStateLocked(StateAuthenticatedWithoutProfile)
	}
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
	m.notify()
}

// guard converts a panic in an operation into a failed result
func (m *Manager) guard(op string, res *Result) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Str("operation", op).Msg("Session operation panicked")
		*res = failed(fmt.Errorf("%s failed: %v", op, r))
	}
}

func (m *Manager) currentAccount() *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Login signs in and attaches the account's profile
func (m *Manager) Login(ctx context.Context, email, password string) (res Result) {
	defer m.guard("login", &res)
	if m.isClosed() {
		return failed(ErrClosed)
	}
	m.begin()
	defer m.end()

	if _, err := m.auth.SignIn(ctx, email, password); err != nil {
		log.Info().Err(err).Msg("Login failed")
		m.metrics.RecordAuthAttempt("login", "failure")
		return failed(err)
	}

	m.metrics.RecordAuthAttempt("login", "success")
	return succeeded(m.Snapshot().Profile)
}

// Signup creates an account with username and attaches its profile
func (m *Manager) Signup(ctx context.Context, email, password, username string) (res Result) {
	defer m.guard("signup", &res)
	if m.isClosed() {
		return failed(ErrClosed)
	}
	m.begin()
	defer m.end()

	if _, err := m.auth.SignUp(ctx, email, password, username); err != nil {
		log.Info().Err(err).Msg("Signup failed")
		m.metrics.RecordAuthAttempt("signup", "failure")
		return failed(err)
	}

	m.metrics.RecordAuthAttempt("signup", "success")
	return succeeded(m.Snapshot().Profile)
}

// Logout ends the session and clears the account and profile
func (m *Manager) Logout(ctx context.Context) (res Result) {
	defer m.guard("logout", &res)
	if m.isClosed() {
		return failed(ErrClosed)
	}
	m.begin()
	defer m.end()

	if err := m.auth.SignOut(ctx); err != nil {
		log.Error().Err(err).Msg("Logout failed")
		return failed(err)
	}
	return succeeded(nil)
}

// RefreshProfile re-fetches the profile of the current account
func (m *Manager) RefreshProfile(ctx context.Context) (res Result) {
	defer m.guard("refresh profile", &res)
	account := m.currentAccount()
	if account == nil {
		return failed(ErrNotSignedIn)
	}

	profile, err := m.profiles.GetProfile(ctx, account.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", account.ID).Msg("Profile refresh failed")
		return failed(err)
	}

	m.attachProfile(account, profile)
	return succeeded(profile)
}

// CreateProfile returns the existing profile of the current account or
// creates one named after the local part of its email
func (m *Manager) CreateProfile(ctx context.Context) (res Result) {
	defer m.guard("create profile", &res)
	account := m.currentAccount()
	if account == nil {
		return failed(ErrNotSignedIn)
	}

	profile, err := m.profiles.EnsureProfile(ctx, account.ID, services.DefaultUsername(account.Email))
	if err != nil {
		log.Error().Err(err).Str("user_id", account.ID).Msg("Manual profile creation failed")
		return failed(err)
	}
	if profile == nil {
		return failed(errProfileMissing)
	}

	m.attachProfile(account, profile)
	return succeeded(profile)
}

// RefreshAuth re-reads the current account from the auth client and
// re-syncs its profile
func (m *Manager) RefreshAuth(ctx context.Context) (res Result) {
	defer m.guard("refresh auth", &res)
	if m.isClosed() {
		return failed(ErrClosed)
	}
	m.begin()
	defer m.end()

	m.sync(ctx, m.auth.CurrentAccount())
	return succeeded(m.Snapshot().Profile)
}

func (m *Manager) attachProfile(account *models.Account, profile *models.Profile) {
	m.mu.Lock()
	if m.closed || m.account == nil || m.account.ID != account.ID {
		m.mu.Unlock()
		return
	}
	m.profile = profile
	m.setStateLocked(StateAuthenticatedWithProfile)
	m.mu.Unlock()
	m.notify()
}
