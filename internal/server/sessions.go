package server

import (
	"context"
	"sync"

	"github.com/desertthunder/mixtape/internal/session"
)

// SessionSource builds a refreshing session from a stored login.
type SessionSource interface {
	Session(ctx context.Context, userID, refreshToken string) (*session.TokenSession, error)
}

// maxCachedSessions bounds the cache. It is flushed when full.
const maxCachedSessions = 1024

// SessionCache keeps one [session.TokenSession] per login so access tokens are refreshed once per expiry
// rather than once per request.
type SessionCache struct {
	source   SessionSource
	mu       sync.Mutex
	sessions map[string]*session.TokenSession
}

func NewSessionCache(source SessionSource) *SessionCache {
	return &SessionCache{source: source, sessions: make(map[string]*session.TokenSession)}
}

// Get returns the cached session for the login, creating it on first use.
//
// Sessions outlive any single request, so they are built on a background context.
func (c *SessionCache) Get(userID, refreshToken string) (session.Session, error) {
	key := userID + "\x00" + refreshToken

	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[key]; ok {
		return sess, nil
	}

	sess, err := c.source.Session(context.Background(), userID, refreshToken)
	if err != nil {
		return nil, err
	}

	if len(c.sessions) >= maxCachedSessions {
		clear(c.sessions)
	}
	c.sessions[key] = sess
	return sess, nil
}

// Len reports how many sessions are cached.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
