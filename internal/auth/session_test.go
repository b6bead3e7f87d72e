package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossline/salon-bookings/internal/auth"
	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
)

func newSessionFixture(t *testing.T) (*auth.SessionRefresher, *memRefreshRepo, *clock.Fixed) {
	t.Helper()
	repo := newMemRefreshRepo()
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return auth.NewSessionRefresher(repo, credentials.NewStore(), clk, 48*time.Hour), repo, clk
}

func TestSessionIssueAndValidate(t *testing.T) {
	sessions, _, _ := newSessionFixture(t)
	ctx := context.Background()

	rt, err := sessions.Issue(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rt.Token)

	ok, err := sessions.Validate(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionSecondIssueInvalidatesFirst(t *testing.T) {
	sessions, _, _ := newSessionFixture(t)
	ctx := context.Background()

	first, err := sessions.Issue(ctx, "user-1")
	require.NoError(t, err)
	second, err := sessions.Issue(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	ok, err := sessions.Validate(ctx, first.Token)
	require.NoError(t, err)
	assert.False(t, ok, "first token must die when a second is issued")

	ok, err = sessions.Validate(ctx, second.Token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionValidateExpired(t *testing.T) {
	sessions, _, clk := newSessionFixture(t)
	ctx := context.Background()

	rt, err := sessions.Issue(ctx, "user-1")
	require.NoError(t, err)

	clk.Advance(47 * time.Hour)
	ok, err := sessions.Validate(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(2 * time.Hour)
	ok, err = sessions.Validate(ctx, rt.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionValidateUnknownToken(t *testing.T) {
	sessions, _, _ := newSessionFixture(t)

	// Unknown and expired tokens are indistinguishable: bool false, no error.
	ok, err := sessions.Validate(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRevokeAll(t *testing.T) {
	sessions, _, _ := newSessionFixture(t)
	ctx := context.Background()

	rt, err := sessions.Issue(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, sessions.RevokeAll(ctx, "user-1"))

	ok, err := sessions.Validate(ctx, rt.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}
