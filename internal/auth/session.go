package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 64

// SessionRefresher manages store-backed refresh tokens. A user owns at most
// one: issuing replaces whatever was there before, so a second login kills
// the first session's refresh token.
type SessionRefresher struct {
	tokens postgres.RefreshTokensRepo
	creds  *credentials.Store
	clock  clock.Clock
	ttl    time.Duration
}

func NewSessionRefresher(tokens postgres.RefreshTokensRepo, creds *credentials.Store, clk clock.Clock, ttl time.Duration) *SessionRefresher {
	return &SessionRefresher{tokens: tokens, creds: creds, clock: clk, ttl: ttl}
}

func (s *SessionRefresher) Issue(ctx context.Context, userID string) (*domain.RefreshToken, error) {
	token, err := s.creds.RandomToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	rt, err := s.tokens.Replace(ctx, userID, token, s.clock.Now().Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Validate reports whether a refresh token exists and has not expired. An
// unknown token and an expired one are indistinguishable to the caller.
func (s *SessionRefresher) Validate(ctx context.Context, token string) (bool, error) {
	rt, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rt.ExpiresAt.After(s.clock.Now()), nil
}

func (s *SessionRefresher) Resolve(ctx context.Context, token string) (*domain.RefreshToken, error) {
	return s.tokens.FindByToken(ctx, token)
}

// RevokeAll deletes every refresh token a user owns. Used for logout.
func (s *SessionRefresher) RevokeAll(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUserID(ctx, userID)
}
