package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/metrics"
	"github.com/Danikxd/maturita-web/internal/models"
)

// GoTrue is a Provider for GoTrue-compatible auth APIs (e.g. Supabase auth).
type GoTrue struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoTrue creates a client for baseURL (e.g. https://x.supabase.co/auth/v1).
// apiKey is sent as the apikey header on every request.
func NewGoTrue(baseURL, apiKey string, client *http.Client) *GoTrue {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GoTrue{baseURL: baseURL, apiKey: apiKey, client: client}
}

type userResponse struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Identities []json.RawMessage `json:"identities"`
}

func (u userResponse) model() models.User {
	return models.User{ID: u.ID, Email: u.Email, Identities: len(u.Identities)}
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`

	// sign-up without confirmation returns the user at the top level
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Identities []json.RawMessage `json:"identities"`
}

func (t tokenResponse) session() models.Session {
	s := models.Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	if claims, err := ParseAccessToken(t.AccessToken); err == nil {
		s.UserID, s.Email, s.Expiry = claims.UserID, claims.Email, claims.Expiry
	}
	if t.User != nil {
		s.UserID = t.User.ID
		if t.User.Email != "" {
			s.Email = t.User.Email
		}
	}
	switch {
	case t.ExpiresAt > 0:
		s.Expiry = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0 && s.Expiry.IsZero():
		s.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	return e.Error
}

func (e errorResponse) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.ErrorDescription
}

// remoteError is an HTTP error returned by the provider before mapping.
type remoteError struct {
	Status int
	Code   string
	Msg    string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("auth: status %d: %s %s", e.Status, e.Code, e.Msg)
}

// SignIn exchanges email and password for a session.
func (g *GoTrue) SignIn(ctx context.Context, email, password string) (s models.Session, err error) {
	done := metrics.ObserveCall("auth", "sign_in")
	defer func() { done(err) }()

	if err := ValidateSignIn(email, password); err != nil {
		return models.Session{}, err
	}
	var tok tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &tok); err != nil {
		return models.Session{}, mapError(err, signInCode)
	}
	return tok.session(), nil
}

// SignUp registers a new account. A user with no identities means the
// email is already registered.
func (g *GoTrue) SignUp(ctx context.Context, email, password string) (res SignUpResult, err error) {
	done := metrics.ObserveCall("auth", "sign_up")
	defer func() { done(err) }()

	if err := ValidateSignUp(email, password); err != nil {
		return SignUpResult{}, err
	}
	var tok tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/signup", "", body, &tok); err != nil {
		return SignUpResult{}, mapError(err, signUpCode)
	}

	user := userResponse{ID: tok.ID, Email: tok.Email, Identities: tok.Identities}
	if tok.User != nil {
		user = *tok.User
	}
	if len(user.Identities) == 0 {
		return SignUpResult{}, apperr.Rejected(apperr.CodeEmailExists, "email already registered", nil)
	}
	res.User = user.model()
	if tok.AccessToken != "" {
		s := tok.session()
		res.Session = &s
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new session.
func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (s models.Session, err error) {
	done := metrics.ObserveCall("auth", "refresh")
	defer func() { done(err) }()

	var tok tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &tok); err != nil {
		return models.Session{}, mapRefreshError(err)
	}
	return tok.session(), nil
}

// GetUser returns the account behind accessToken.
func (g *GoTrue) GetUser(ctx context.Context, accessToken string) (u models.User, err error) {
	done := metrics.ObserveCall("auth", "get_user")
	defer func() { done(err) }()

	var resp userResponse
	if err := g.do(ctx, http.MethodGet, "/user", accessToken, nil, &resp); err != nil {
		return models.User{}, mapRefreshError(err)
	}
	return resp.model(), nil
}

// SignOut revokes the session behind accessToken.
func (g *GoTrue) SignOut(ctx context.Context, accessToken string) (err error) {
	done := metrics.ObserveCall("auth", "sign_out")
	defer func() { done(err) }()

	if err := g.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		var re *remoteError
		// an already-invalid token is as good as signed out
		if errors.As(err, &re) && (re.Status == http.StatusUnauthorized || re.Status == http.StatusNotFound) {
			return nil
		}
		return mapError(err, func(string) string { return apperr.CodeUnexpected })
	}
	return nil
}

func (g *GoTrue) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Network(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return &remoteError{Status: resp.StatusCode, Code: e.code(), Msg: e.message()}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Rejected(apperr.CodeUnexpected, "malformed auth response", err)
	}
	return nil
}

func mapError(err error, codeFor func(string) string) error {
	var re *remoteError
	if !errors.As(err, &re) {
		return err
	}
	switch re.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.Network(re)
	}
	return apperr.Rejected(codeFor(re.Code), re.Msg, re)
}

func mapRefreshError(err error) error {
	var re *remoteError
	if !errors.As(err, &re) {
		return err
	}
	switch re.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.Network(re)
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return &apperr.Error{Kind: apperr.KindUnauthenticated, Code: apperr.CodeUnauthenticated, Message: "session expired", Err: re}
	}
	return apperr.Rejected(apperr.CodeUnexpected, re.Msg, re)
}
