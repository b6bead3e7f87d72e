package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossline/salon-bookings/internal/auth"
	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
)

type verificationFixture struct {
	workflow *auth.VerificationWorkflow
	users    *memUsersRepo
	mail     *mockMailer
	creds    *credentials.Store
	clk      *clock.Fixed
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	users := newMemUsersRepo()
	mail := &mockMailer{}
	creds := credentials.NewStore()
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	workflow := auth.NewVerificationWorkflow(
		users, creds, mail, clk,
		24*time.Hour, 2*time.Hour,
		"http://localhost:5173",
	)
	return &verificationFixture{workflow: workflow, users: users, mail: mail, creds: creds, clk: clk}
}

func (f *verificationFixture) seedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := f.creds.Hash(password)
	require.NoError(t, err)
	user, err := f.users.Create(context.Background(), &domain.User{
		Role:         domain.RoleUser,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ada",
		Enabled:      true,
	})
	require.NoError(t, err)
	return user
}

func TestIssueAndVerifyByToken(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "password123")

	require.NoError(t, f.workflow.IssueVerification(ctx, user))
	require.Equal(t, 1, f.mail.sentCount())
	assert.Equal(t, "ada@example.com", f.mail.last().to)
	assert.Contains(t, f.mail.last().body, "/verify-email?token=")

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EmailVerificationToken)

	ok, err := f.workflow.VerifyByToken(ctx, *stored.EmailVerificationToken)
	require.NoError(t, err)
	assert.True(t, ok)

	verified, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Nil(t, verified.EmailVerificationToken, "token cleared on use")
}

func TestVerifyByTokenExpired(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "password123")

	require.NoError(t, f.workflow.IssueVerification(ctx, user))
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)

	f.clk.Advance(25 * time.Hour)
	ok, err := f.workflow.VerifyByToken(ctx, *stored.EmailVerificationToken)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, after.EmailVerified)
}

func TestVerifyByTokenUnknown(t *testing.T) {
	f := newVerificationFixture(t)

	ok, err := f.workflow.VerifyByToken(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.workflow.VerifyByToken(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResendVerification(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "password123")

	require.NoError(t, f.workflow.ResendVerification(ctx, user.Email))
	assert.Equal(t, 1, f.mail.sentCount())

	// Unknown email is an error here, unlike the reset flow.
	err := f.workflow.ResendVerification(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Already verified accounts are refused.
	require.NoError(t, f.users.MarkEmailVerified(ctx, user.ID))
	err = f.workflow.ResendVerification(ctx, user.Email)
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
}

func TestResendVerificationMailFailure(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "password123")

	f.mail.sendErr = assert.AnError
	err := f.workflow.ResendVerification(ctx, user.Email)
	assert.Error(t, err, "explicit resend surfaces the mail failure")
}

func TestInitiatePasswordReset(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "password123")

	require.NoError(t, f.workflow.InitiatePasswordReset(ctx, user.Email))
	require.Equal(t, 1, f.mail.sentCount())
	assert.Contains(t, f.mail.last().body, "/reset-password?token=")

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ResetToken)
}

func TestInitiatePasswordResetUnknownEmail(t *testing.T) {
	f := newVerificationFixture(t)

	// Same outcome as a known email, and no mail goes out.
	require.NoError(t, f.workflow.InitiatePasswordReset(context.Background(), "nobody@example.com"))
	assert.Equal(t, 0, f.mail.sentCount())
}

func TestCompletePasswordReset(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "old-password-1")

	require.NoError(t, f.workflow.InitiatePasswordReset(ctx, user.Email))
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)

	ok, err := f.workflow.CompletePasswordReset(ctx, *stored.ResetToken, "new-password-1")
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, f.creds.Verify("new-password-1", after.PasswordHash))
	assert.False(t, f.creds.Verify("old-password-1", after.PasswordHash))
	assert.Nil(t, after.ResetToken, "reset token consumed")
}

func TestCompletePasswordResetExpired(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "old-password-1")

	require.NoError(t, f.workflow.InitiatePasswordReset(ctx, user.Email))
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)

	f.clk.Advance(3 * time.Hour)
	ok, err := f.workflow.CompletePasswordReset(ctx, *stored.ResetToken, "new-password-1")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, f.creds.Verify("old-password-1", after.PasswordHash), "password unchanged")
}

func TestChangePassword(t *testing.T) {
	f := newVerificationFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "ada@example.com", "old-password-1")

	ok, err := f.workflow.ChangePassword(ctx, user.ID, "wrong-old", "new-password-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.workflow.ChangePassword(ctx, user.ID, "old-password-1", "new-password-1")
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, f.creds.Verify("new-password-1", after.PasswordHash))
}

func TestVerificationMailIncludesEmail(t *testing.T) {
	f := newVerificationFixture(t)
	user := f.seedUser(t, "ada@example.com", "password123")

	require.NoError(t, f.workflow.IssueVerification(context.Background(), user))
	body := f.mail.last().body
	assert.True(t, strings.Contains(body, "email=ada@example.com"), "verify link carries the email")
}
