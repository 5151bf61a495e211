// Package session holds the bearer token attached to outgoing backend requests.
// A Session is bound at login and cleared at logout; clients only read from it.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"
)

// Session is the explicit session context threaded into the API clients.
// A nil *Session behaves as an unauthenticated session.
type Session struct {
	mu        sync.RWMutex
	token     string
	subject   string
	expiresAt time.Time
	logger    zerolog.Logger
}

// New creates an empty session.
func New(logger zerolog.Logger) *Session {
	return &Session{logger: logger.With().Str("component", "session").Logger()}
}

// Bind stores the access token issued at login. The token's claims are read without
// verification, for diagnostics only; signature checks are the backend's concern.
func (s *Session) Bind(token string) {
	var subject string
	var expiresAt time.Time

	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		s.logger.Debug().Err(err).Msg("session token is not a readable JWT")
	} else {
		subject = claims.Subject
		if claims.ExpiresAt > 0 {
			expiresAt = time.Unix(claims.ExpiresAt, 0)
		}
	}

	s.mu.Lock()
	s.token = token
	s.subject = subject
	s.expiresAt = expiresAt
	s.mu.Unlock()

	s.logger.Info().Str("subject", subject).Time("expires_at", expiresAt).Msg("session bound")
}

// Clear discards the token at logout.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.subject = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	s.logger.Info().Msg("session cleared")
}

// Token returns the bound token, or "" when none is bound.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subject returns the token's "sub" claim when it could be read.
func (s *Session) Subject() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// Expired reports whether the token carries an expiry that is before now.
// Expired tokens are still attached; rejection is the backend's decision.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}
