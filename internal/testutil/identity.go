package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/identity"
	"github.com/Danikxd/maturita-web/internal/models"
)

type account struct {
	userID   string
	password string
}

// Identity is an in-memory identity provider. Accounts are keyed by email;
// issued access tokens are "token-<userID>" so they work with DataService.
type Identity struct {
	mu       sync.Mutex
	accounts map[string]account
	signOuts int
}

// NewIdentity returns a provider without accounts.
func NewIdentity() *Identity {
	return &Identity{accounts: map[string]account{}}
}

// AddUser registers email with password as userID.
func (p *Identity) AddUser(email, password, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = account{userID: userID, password: password}
}

// SignOuts returns how many remote sign-outs were requested.
func (p *Identity) SignOuts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

func session(email, userID string) models.Session {
	return models.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  TokenFor(userID),
		RefreshToken: "refresh-" + userID,
		Expiry:       time.Now().Add(time.Hour),
	}
}

func (p *Identity) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	if err := identity.ValidateSignIn(email, password); err != nil {
		return models.Session{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[email]
	if !ok || a.password != password {
		return models.Session{}, apperr.Rejected(apperr.CodeInvalidCredentials, "invalid login credentials", nil)
	}
	return session(email, a.userID), nil
}

func (p *Identity) SignUp(ctx context.Context, email, password string) (identity.SignUpResult, error) {
	if err := identity.ValidateSignUp(email, password); err != nil {
		return identity.SignUpResult{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return identity.SignUpResult{}, apperr.Rejected(apperr.CodeEmailExists, "user already registered", nil)
	}
	userID := "user-" + email
	p.accounts[email] = account{userID: userID, password: password}
	s := session(email, userID)
	return identity.SignUpResult{User: models.User{ID: userID, Email: email}, Session: &s}, nil
}

func (p *Identity) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, a := range p.accounts {
		if "refresh-"+a.userID == refreshToken {
			return session(email, a.userID), nil
		}
	}
	return models.Session{}, apperr.Unauthenticated("invalid refresh token")
}

func (p *Identity) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, a := range p.accounts {
		if TokenFor(a.userID) == accessToken {
			return models.User{ID: a.userID, Email: email}, nil
		}
	}
	return models.User{}, apperr.Unauthenticated("invalid token")
}

func (p *Identity) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	return nil
}
