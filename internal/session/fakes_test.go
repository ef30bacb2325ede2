package session

import (
	"context"
	"sync"

	"modelhub-backend/internal/auth"
	"modelhub-backend/internal/models"
	"modelhub-backend/internal/services"
)

type fakeProfiles struct {
	mu         sync.Mutex
	byID       map[string]*models.Profile
	getErr     error
	ensureErr  error
	panicOnGet bool
	block      chan struct{}
	entered    chan struct{}
	gets       int
	ensures    int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: make(map[string]*models.Profile)}
}

func (f *fakeProfiles) put(p *models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = p
}

func (f *fakeProfiles) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	f.gets++
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnGet {
		panic("profile store exploded")
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) EnsureProfile(_ context.Context, id, username string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensures++
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	p := &models.Profile{ID: id, Username: username, DisplayName: username}
	f.byID[id] = p
	return p, nil
}

// fakeBackend is an in-memory auth backend that creates the profile on
// signup the way the real service does
type fakeBackend struct {
	mu        sync.Mutex
	profiles  *fakeProfiles
	accounts  map[string]*models.Account
	passwords map[string]string
	tokens    map[string]*models.Account
	noProfile bool
}

func newFakeBackend(profiles *fakeProfiles) *fakeBackend {
	return &fakeBackend{
		profiles:  profiles,
		accounts:  make(map[string]*models.Account),
		passwords: make(map[string]string),
		tokens:    make(map[string]*models.Account),
	}
}

func (f *fakeBackend) SignUp(_ context.Context, email, password, username string) (*auth.Credentials, error) {
	if err := auth.ValidateSignup(email, password, "", username); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		return nil, auth.ErrEmailInUse
	}
	account := &models.Account{ID: "acct-" + email, Email: email}
	f.accounts[email] = account
	f.passwords[email] = password
	if !f.noProfile {
		f.profiles.put(&models.Profile{ID: account.ID, Username: username, DisplayName: username})
	}
	return f.issueLocked(account), nil
}

func (f *fakeBackend) SignIn(_ context.Context, email, password string) (*auth.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[email]
	if !ok || f.passwords[email] != password {
		return nil, auth.ErrInvalidCredentials
	}
	return f.issueLocked(account), nil
}

func (f *fakeBackend) Authenticate(_ context.Context, token string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return account, nil
}

func (f *fakeBackend) issueLocked(account *models.Account) *auth.Credentials {
	token := "token-" + account.ID
	f.tokens[token] = account
	return &auth.Credentials{Account: account, Token: token}
}

// addAccount registers an account without a profile and returns its token
func (f *fakeBackend) addAccount(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	account := &models.Account{ID: "acct-" + email, Email: email}
	f.accounts[email] = account
	f.passwords[email] = password
	return f.issueLocked(account).Token
}

// fakeAuth counts subscriptions for lifecycle tests
type fakeAuth struct {
	*auth.Client
	mu           sync.Mutex
	subscribed   int
	unsubscribed int
	listener     func(*models.Account)
}

func (f *fakeAuth) OnAuthStateChanged(fn func(*models.Account)) func() {
	f.mu.Lock()
	f.subscribed++
	f.listener = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.listener = nil
		f.mu.Unlock()
	}
}

func (f *fakeAuth) emit(account *models.Account) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(account)
	}
}
