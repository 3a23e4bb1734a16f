package testutil

import (
	"context"
	"sync"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Gate is a session gate holding a fixed session. Safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	session *models.Session
	calls   int
}

// NewGate returns a Gate signed in as userID with access token "token-<userID>".
// An empty userID yields a signed-out gate.
func NewGate(userID string) *Gate {
	g := &Gate{}
	if userID != "" {
		g.SignIn(userID)
	}
	return g
}

// SignIn replaces the session.
func (g *Gate) SignIn(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = &models.Session{UserID: userID, AccessToken: TokenFor(userID)}
}

// SignOut drops the session.
func (g *Gate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = nil
}

// RequireSession implements session.Gate.
func (g *Gate) RequireSession(context.Context) (models.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.session == nil {
		return models.Session{}, apperr.Unauthenticated("not signed in")
	}
	return *g.session, nil
}

// Calls returns how often RequireSession ran.
func (g *Gate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// TokenFor is the access token the fakes issue to userID.
func TokenFor(userID string) string {
	return "token-" + userID
}
