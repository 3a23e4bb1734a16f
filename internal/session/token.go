package session

import (
	"context"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/identity"
	"github.com/Danikxd/maturita-web/internal/models"
	"golang.org/x/oauth2"
)

// refresher is the oauth2.TokenSource behind ReuseTokenSource: it is only
// consulted once the cached access token has expired.
type refresher struct {
	ctx      context.Context
	provider identity.Provider
	current  models.Session
}

func (r *refresher) Token() (*oauth2.Token, error) {
	if r.current.RefreshToken == "" {
		return nil, apperr.Unauthenticated("session expired")
	}
	s, err := r.provider.Refresh(r.ctx, r.current.RefreshToken)
	if err != nil {
		return nil, err
	}
	if s.UserID == "" {
		s.UserID = r.current.UserID
	}
	if s.Email == "" {
		s.Email = r.current.Email
	}
	tok := toToken(s)
	return tok.WithExtra(map[string]any{"user_id": s.UserID, "email": s.Email}), nil
}

func toToken(s models.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
}

func fromToken(tok *oauth2.Token, prev models.Session) models.Session {
	s := models.Session{
		UserID:       prev.UserID,
		Email:        prev.Email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if v, ok := tok.Extra("user_id").(string); ok && v != "" {
		s.UserID = v
	}
	if v, ok := tok.Extra("email").(string); ok && v != "" {
		s.Email = v
	}
	if s.RefreshToken == "" {
		s.RefreshToken = prev.RefreshToken
	}
	return s
}
