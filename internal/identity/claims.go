package identity

import (
	"fmt"

	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken reads sub, email and exp from a JWT access token without
// verifying its signature. The client never holds the signing key; the data
// service verifies tokens itself.
func ParseAccessToken(token string) (models.Session, error) {
	var c accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return models.Session{}, fmt.Errorf("parse access token: %w", err)
	}
	s := models.Session{
		UserID:      c.Subject,
		Email:       c.Email,
		AccessToken: token,
	}
	if c.ExpiresAt != nil {
		s.Expiry = c.ExpiresAt.Time
	}
	return s, nil
}
