package models

import "time"

// Session is an authenticated identity-provider session.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero Expiry never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.Expiry.IsZero() && !now.Before(s.Expiry)
}

// User is the identity provider's view of the signed-in account.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Identities int    `json:"-"`
}
