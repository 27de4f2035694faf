// Package session maps opaque console session ids to operator bearer tokens.
// Tokens are issued by the auth backend; the console only stores them in
// Redis for as long as they stay valid and never refreshes them.
package session

import (
	"errors"
	"time"
)

// Redis key layout for session records.
const (
	RedisKeyPrefix = "admin:session:"
)

// TTL bounds for stored sessions.
const (
	// DefaultTTL applies to tokens that carry no expiry.
	DefaultTTL = 12 * time.Hour

	// MinRemaining rejects tokens that are about to expire.
	MinRemaining = 30 * time.Second
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidToken is returned for blank tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Session is one signed-in operator.
type Session struct {
	// ID is the opaque handle given to the browser.
	ID string `json:"id"`

	// Token is the backend bearer token. It never leaves the server.
	Token string `json:"token"`

	// Operator is the token subject, when the token is a JWT that has one.
	Operator string `json:"operator,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeUntilExpiry returns the remaining lifetime, 0 once expired.
func (s *Session) TimeUntilExpiry(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// View is the public part of a session.
type View struct {
	ID        string    `json:"sessionId"`
	Operator  string    `json:"operator,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Public returns the session without its token.
func (s *Session) Public() View {
	return View{ID: s.ID, Operator: s.Operator, ExpiresAt: s.ExpiresAt}
}
