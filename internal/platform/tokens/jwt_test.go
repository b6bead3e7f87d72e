package tokens_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/tokens"
)

func TestIssueAndVerify(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := tokens.NewAuthority("test-secret", 24*time.Hour, clk)

	token, err := authority.Issue("ada@example.com", domain.RoleUser)
	require.NoError(t, err)

	subject, err := authority.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", subject)

	claims, err := authority.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "ada@example.com", claims.Subject)
}

func TestVerifyExpired(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := tokens.NewAuthority("test-secret", 24*time.Hour, clk)

	token, err := authority.Issue("ada@example.com", domain.RoleUser)
	require.NoError(t, err)

	// Still valid just before the deadline.
	clk.Advance(23 * time.Hour)
	_, err = authority.Verify(token)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = authority.Verify(token)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer := tokens.NewAuthority("secret-a", 24*time.Hour, clk)
	verifier := tokens.NewAuthority("secret-b", 24*time.Hour, clk)

	token, err := issuer.Issue("ada@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := tokens.NewAuthority("test-secret", 24*time.Hour, clk)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := authority.Verify(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "input %q", raw)
	}
}
