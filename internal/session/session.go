// Package session keeps server-side login sessions. A client holds a signed
// token naming its session; the session record itself lives in a Store, so
// logging out revokes the token even before it expires.
package session

import (
	"context" // Context for store operations
	"errors"  // Sentinel errors
	"time"    // Session lifetimes

	"keja/internal/utils" // Token signing

	"github.com/google/uuid"     // Session ids
	"github.com/sirupsen/logrus" // Logging library
)

var (
	// ErrNoSession means the token named a session that no longer exists
	ErrNoSession = errors.New("session not found")
	// ErrInvalidToken means the token failed signature, expiry or binding checks
	ErrInvalidToken = errors.New("invalid session token")
)

// Record is the server-side state of one login session
type Record struct {
	ID        string    `json:"id"`         // Session id, also the token jti
	UserID    uint      `json:"user_id"`    // Owner of the session
	CreatedAt time.Time `json:"created_at"` // Login time
}

// Store persists session records
type Store interface {
	Save(ctx context.Context, rec Record, ttl time.Duration) error // Expires after ttl
	Load(ctx context.Context, id string) (Record, error)           // ErrNoSession when absent
	Delete(ctx context.Context, id string) error                   // Absent ids are not an error
}

// Manager issues, resolves and destroys sessions
type Manager struct {
	store  Store         // Session records
	secret string        // Token signing key
	ttl    time.Duration // Session lifetime
}

// NewManager returns a Manager signing tokens with secret
func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl}
}

// TTL is how long an established session stays valid
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Establish creates a session for userID and returns its token
func (m *Manager) Establish(ctx context.Context, userID uint) (string, error) {
	rec := Record{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	if err := m.store.Save(ctx, rec, m.ttl); err != nil {
		return "", err
	}
	token, err := utils.GenerateJWT(userID, rec.ID, m.secret, m.ttl)
	if err != nil {
		_ = m.store.Delete(ctx, rec.ID) // Drop the orphaned record
		return "", err
	}
	return token, nil
}

// Resolve returns the user id of the session named by token
func (m *Manager) Resolve(ctx context.Context, token string) (uint, error) {
	claims, err := utils.ParseJWT(token, m.secret)
	if err != nil {
		return 0, ErrInvalidToken // Bad signature or expired
	}
	rec, err := m.store.Load(ctx, claims.ID)
	if err != nil {
		return 0, err
	}
	if rec.UserID != claims.UserID {
		logrus.WithFields(logrus.Fields{
			"session_id":  rec.ID,
			"token_user":  claims.UserID,
			"record_user": rec.UserID,
		}).Warn("session token does not match its record")
		return 0, ErrInvalidToken
	}
	return rec.UserID, nil
}

// Destroy removes the session named by token. Unknown, expired or malformed
// tokens are not an error: the caller ends up logged out either way.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	claims, err := utils.ParseJWT(token, m.secret)
	if err != nil {
		return nil // Nothing to revoke
	}
	return m.store.Delete(ctx, claims.ID)
}
