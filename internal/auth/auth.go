// Package auth manages wallet-based sessions. Identity is explicit state
// owned by a Manager and threaded to whoever needs it, never ambient
// storage: login and logout are the only transitions.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/solspark/marketboard/internal/models"
)

// DefaultSessionTTL bounds how long a login stays valid without renewal.
const DefaultSessionTTL = 24 * time.Hour

// ErrInvalidSession is returned for unknown or expired tokens.
var ErrInvalidSession = errors.New("invalid or expired session")

// UserStore is the slice of storage the manager needs.
type UserStore interface {
	UpsertUserByWallet(walletAddress string) (*models.User, error)
	GetUser(id string) (*models.User, error)
}

// Session ties a bearer token to a user.
type Session struct {
	Token         string    `json:"token"`
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Manager owns the in-memory session table. Safe for concurrent handlers.
type Manager struct {
	mu       sync.Mutex
	store    UserStore
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a Manager. ttl <= 0 falls back to DefaultSessionTTL.
func NewManager(store UserStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		store:    store,
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login authenticates a wallet address, creating the account on first sight,
// and issues a fresh session token. The wallet handshake itself happens
// client-side; the address string is the identity this core trusts.
func (m *Manager) Login(walletAddress string) (*models.User, *Session, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, nil, errors.New("wallet address must not be empty")
	}

	user, err := m.store.UpsertUserByWallet(walletAddress)
	if err != nil {
		return nil, nil, err
	}

	session := Session{
		Token:         uuid.New().String(),
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		ExpiresAt:     m.now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[session.Token] = session
	m.mu.Unlock()

	return user, &session, nil
}

// Logout revokes a session token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// UserFromToken resolves a bearer token to its user. Expired sessions are
// dropped on sight.
func (m *Manager) UserFromToken(token string) (*models.User, error) {
	m.mu.Lock()
	session, ok := m.sessions[token]
	if ok && m.now().After(session.ExpiresAt) {
		delete(m.sessions, token)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrInvalidSession
	}
	return m.store.GetUser(session.UserID)
}

// ActiveSessions reports the live session count, expired ones excluded.
func (m *Manager) ActiveSessions() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if !now.After(s.ExpiresAt) {
			n++
		}
	}
	return n
}
