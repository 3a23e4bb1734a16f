package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"Abc123", true},
		{"Ab1", false},
		{"abcdef1", false},
		{"ABCDEF1", false},
		{"Abcdefg", false},
		{"Pässw0rd", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPassword(tt.pw), tt.pw)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.cz"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("a b@c.cz"))
	assert.False(t, ValidEmail(""))
}

func TestSignIn_ValidatesBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()
	g := NewGoTrue(srv.URL, "key", srv.Client())

	_, err := g.SignIn(context.Background(), "bad", "Abc123")
	assert.Equal(t, apperr.CodeInvalidEmail, apperr.CodeOf(err))

	_, err = g.SignIn(context.Background(), "a@b.cz", "short")
	assert.Equal(t, apperr.CodeInvalidPasswordFormat, apperr.CodeOf(err))

	_, err = g.SignUp(context.Background(), "a@b.cz", "short")
	assert.Equal(t, apperr.CodeWeakPassword, apperr.CodeOf(err))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSignIn_Success(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, "user-1", "a@b.cz", exp)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "key", r.Header.Get("apikey"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.cz", body["email"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	s, err := NewGoTrue(srv.URL, "key", srv.Client()).SignIn(context.Background(), "a@b.cz", "Abc123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "a@b.cz", s.Email)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.True(t, s.Expiry.Equal(exp))
}

func TestSignIn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
		kind   apperr.Kind
	}{
		{"bad credentials", 400, `{"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, apperr.CodeInvalidCredentials, apperr.KindRemoteRejected},
		{"unconfirmed", 400, `{"error_code":"email_not_confirmed"}`, apperr.CodeEmailNotConfirmed, apperr.KindRemoteRejected},
		{"legacy grant", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, apperr.CodeInvalidCredentials, apperr.KindRemoteRejected},
		{"other", 422, `{"error_code":"something_new"}`, apperr.CodeUnexpected, apperr.KindRemoteRejected},
		{"unavailable", 503, ``, apperr.CodeNetworkUnavailable, apperr.KindNetworkUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGoTrue(srv.URL, "", srv.Client()).SignIn(context.Background(), "a@b.cz", "Abc123")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     string
		session  bool
		wantUser string
	}{
		{"needs confirmation", 200, `{"id":"u1","email":"a@b.cz","identities":[{"id":"i1"}]}`, "", false, "u1"},
		{"email exists", 200, `{"id":"u1","email":"a@b.cz","identities":[]}`, apperr.CodeEmailExists, false, ""},
		{"signup disabled", 403, `{"error_code":"signup_disabled"}`, apperr.CodeSignupDisabled, false, ""},
		{"weak", 422, `{"error_code":"weak_password"}`, apperr.CodeWeakPassword, false, ""},
		{"invalid email", 400, `{"error_code":"email_address_invalid"}`, apperr.CodeInvalidEmail, false, ""},
		{"validation failed", 400, `{"error_code":"validation_failed"}`, apperr.CodeInvalidEmail, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/signup", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res, err := NewGoTrue(srv.URL, "", srv.Client()).SignUp(context.Background(), "a@b.cz", "Abc123")
			if tt.code != "" {
				assert.Equal(t, tt.code, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, res.User.ID)
			assert.Equal(t, tt.session, res.Session != nil)
		})
	}
}

func TestSignUp_WithSession(t *testing.T) {
	access := signedToken(t, "u2", "b@c.cz", time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "r",
			"user":          map[string]any{"id": "u2", "email": "b@c.cz", "identities": []any{map[string]string{"id": "x"}}},
		})
	}))
	defer srv.Close()

	res, err := NewGoTrue(srv.URL, "", srv.Client()).SignUp(context.Background(), "b@c.cz", "Abc123")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "u2", res.Session.UserID)
	assert.Equal(t, 1, res.User.Identities)
}

func TestRefresh_RejectedIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"refresh_token_not_found"}`))
	}))
	defer srv.Close()

	_, err := NewGoTrue(srv.URL, "", srv.Client()).Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestGetUserAndSignOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.cz","identities":[{},{}]}`))
		case "/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	g := NewGoTrue(srv.URL, "", srv.Client())

	u, err := g.GetUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, 2, u.Identities)

	assert.NoError(t, g.SignOut(context.Background(), "tok"))
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGoTrue(url, "", nil).SignIn(context.Background(), "a@b.cz", "Abc123")
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
}

func TestParseAccessToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s, err := ParseAccessToken(signedToken(t, "sub-1", "x@y.cz", exp))
	require.NoError(t, err)
	assert.Equal(t, "sub-1", s.UserID)
	assert.Equal(t, "x@y.cz", s.Email)
	assert.True(t, s.Expiry.Equal(exp))

	_, err = ParseAccessToken("not-a-jwt")
	assert.Error(t, err)
}
