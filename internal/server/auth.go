package server

import (
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionView is what clients see of a session; tokens stay server-side.
type sessionView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func viewOf(s models.Session) sessionView {
	return sessionView{UserID: s.UserID, Email: s.Email, ExpiresAt: s.Expiry}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sess, err := s.Sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.Sessions.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	body := map[string]any{"user": res.User, "signed_in": res.Session != nil}
	if res.Session != nil {
		body["session"] = viewOf(*res.Session)
	}
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.SignOut(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.RequireSession(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
