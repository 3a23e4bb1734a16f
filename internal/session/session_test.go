package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/identity"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu         sync.Mutex
	signIn     models.Session
	signUp     identity.SignUpResult
	refreshed  models.Session
	refreshErr error
	refreshes  int
	signOuts   int
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	if err := identity.ValidateSignIn(email, password); err != nil {
		return models.Session{}, err
	}
	return f.signIn, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (identity.SignUpResult, error) {
	return f.signUp, nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return models.Session{}, f.refreshErr
	}
	return f.refreshed, nil
}

func (f *fakeProvider) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	return models.User{ID: "u1", Email: "a@b.cz", Identities: 1}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.signOuts++
	return nil
}

func newManager(p *fakeProvider) (*Manager, store.Store) {
	st := store.NewSnapshots(store.NewMemory())
	return NewManager(p, st), st
}

func TestRequireSession_NoSession(t *testing.T) {
	m, _ := newManager(&fakeProvider{})
	_, err := m.RequireSession(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSignIn_PersistsAndNotifies(t *testing.T) {
	p := &fakeProvider{signIn: models.Session{UserID: "u1", AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}}
	m, st := newManager(p)

	var got []*models.Session
	unsub := m.OnSessionChange(func(s *models.Session) { got = append(got, s) })

	_, err := m.SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)

	s, err := m.RequireSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, 0, p.refreshes)

	saved, err := st.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at", saved.AccessToken)

	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)

	unsub()
	require.NoError(t, m.SignOut(context.Background()))
	assert.Len(t, got, 1)
	assert.Equal(t, 1, p.signOuts)

	_, err = st.LoadSession(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSignIn_InvalidCredentialsLeaveNoSession(t *testing.T) {
	m, _ := newManager(&fakeProvider{})
	_, err := m.SignIn(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, ok := m.GetSession()
	assert.False(t, ok)
}

func TestRequireSession_RefreshesExpiredToken(t *testing.T) {
	p := &fakeProvider{
		signIn:    models.Session{UserID: "u1", Email: "a@b.cz", AccessToken: "old", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute)},
		refreshed: models.Session{AccessToken: "new", RefreshToken: "rt2", Expiry: time.Now().Add(time.Hour)},
	}
	m, st := newManager(p)
	_, err := m.SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)

	var events []*models.Session
	m.OnSessionChange(func(s *models.Session) { events = append(events, s) })

	s, err := m.RequireSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", s.AccessToken)
	assert.Equal(t, "rt2", s.RefreshToken)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "a@b.cz", s.Email)
	assert.Equal(t, 1, p.refreshes)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].AccessToken)

	saved, err := st.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", saved.AccessToken)

	// fresh token is reused
	_, err = m.RequireSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.refreshes)
}

func TestRequireSession_RejectedRefreshEndsSession(t *testing.T) {
	p := &fakeProvider{
		signIn:     models.Session{UserID: "u1", AccessToken: "old", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute)},
		refreshErr: apperr.Unauthenticated("refresh token revoked"),
	}
	m, _ := newManager(p)
	_, err := m.SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)

	var events []*models.Session
	m.OnSessionChange(func(s *models.Session) { events = append(events, s) })

	_, err = m.RequireSession(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, ok := m.GetSession()
	assert.False(t, ok)
	require.Len(t, events, 1)
	assert.Nil(t, events[0])
}

func TestRequireSession_NetworkFailureKeepsSession(t *testing.T) {
	p := &fakeProvider{
		signIn:     models.Session{UserID: "u1", AccessToken: "old", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute)},
		refreshErr: apperr.Network(errors.New("dial tcp: refused")),
	}
	m, _ := newManager(p)
	_, err := m.SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)

	_, err = m.RequireSession(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	_, ok := m.GetSession()
	assert.True(t, ok)
}

func TestRequireSession_ExpiredWithoutRefreshToken(t *testing.T) {
	p := &fakeProvider{signIn: models.Session{UserID: "u1", AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}}
	m, _ := newManager(p)
	_, err := m.SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)

	_, err = m.RequireSession(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, 0, p.refreshes)
}

func TestRestore(t *testing.T) {
	p := &fakeProvider{}
	st := store.NewSnapshots(store.NewMemory())
	require.NoError(t, st.SaveSession(context.Background(), models.Session{UserID: "u9", AccessToken: "at"}))

	m := NewManager(p, st)
	ok, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	s, err := m.RequireSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UserID)

	u, err := m.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestSignUp_WithoutSessionStaysSignedOut(t *testing.T) {
	p := &fakeProvider{signUp: identity.SignUpResult{User: models.User{ID: "u1", Identities: 1}}}
	m, _ := newManager(p)
	res, err := m.SignUp(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	_, ok := m.GetSession()
	assert.False(t, ok)
}

func TestRestore_NothingSaved(t *testing.T) {
	m, _ := newManager(&fakeProvider{})
	ok, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
