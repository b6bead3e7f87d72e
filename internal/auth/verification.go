package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
	"github.com/glossline/salon-bookings/internal/platform/mailer"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
	"github.com/glossline/salon-bookings/pkg/logger"
)

// VerificationWorkflow drives the email-verification and password-reset
// token lifecycles. Both token pairs live on the user row and are looked up
// through indexed token columns.
type VerificationWorkflow struct {
	users       postgres.UsersRepo
	creds       *credentials.Store
	mail        mailer.Service
	clock       clock.Clock
	verifyTTL   time.Duration
	resetTTL    time.Duration
	frontendURL string
}

func NewVerificationWorkflow(
	users postgres.UsersRepo,
	creds *credentials.Store,
	mail mailer.Service,
	clk clock.Clock,
	verifyTTL, resetTTL time.Duration,
	frontendURL string,
) *VerificationWorkflow {
	return &VerificationWorkflow{
		users:       users,
		creds:       creds,
		mail:        mail,
		clock:       clk,
		verifyTTL:   verifyTTL,
		resetTTL:    resetTTL,
		frontendURL: frontendURL,
	}
}

// IssueVerification stores a fresh verification token on the user and mails
// the link. Mail failure is logged, never propagated: registration must not
// fail because the mail relay is down.
func (w *VerificationWorkflow) IssueVerification(ctx context.Context, user *domain.User) error {
	token := uuid.NewString()
	expiresAt := w.clock.Now().Add(w.verifyTTL)
	if err := w.users.SetVerificationToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := w.mail.Send(user.Email, "Verify your email", w.verificationBody(user.FirstName, token, user.Email)); err != nil {
		logger.ErrorContext(ctx, "failed to send verification email", "error", err, "user_id", user.ID)
	}
	return nil
}

// VerifyByToken fails closed: unknown token, expired token and a missing
// expiry all come back as false without detail.
func (w *VerificationWorkflow) VerifyByToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	user, err := w.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.EmailVerificationExpiry == nil || !user.EmailVerificationExpiry.After(w.clock.Now()) {
		return false, nil
	}
	if err := w.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (w *VerificationWorkflow) ResendVerification(ctx context.Context, email string) error {
	user, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	token := uuid.NewString()
	expiresAt := w.clock.Now().Add(w.verifyTTL)
	if err := w.users.SetVerificationToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	if err := w.mail.Send(user.Email, "Verify your email", w.verificationBody(user.FirstName, token, user.Email)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// InitiatePasswordReset reports success whether or not the email is known,
// so the endpoint cannot be used to enumerate accounts.
func (w *VerificationWorkflow) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	expiresAt := w.clock.Now().Add(w.resetTTL)
	if err := w.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", w.frontendURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Click <a href="%s">here</a> to reset your password. The link expires in %s.</p>`,
		user.FirstName, resetURL, w.resetTTL)
	if err := w.mail.Send(user.Email, "Password reset request", body); err != nil {
		logger.ErrorContext(ctx, "failed to send reset email", "error", err, "user_id", user.ID)
	}
	return nil
}

// CompletePasswordReset re-hashes and stores the password if the token is
// known and fresh. A false result does not say which precondition failed.
func (w *VerificationWorkflow) CompletePasswordReset(ctx context.Context, token, newPassword string) (bool, error) {
	if token == "" {
		return false, nil
	}
	user, err := w.users.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(w.clock.Now()) {
		return false, nil
	}

	hash, err := w.creds.Hash(newPassword)
	if err != nil {
		return false, err
	}
	if err := w.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return false, err
	}
	return true, nil
}

// ChangePassword is for already-authenticated callers; it gates on the old
// password verifying against the stored hash.
func (w *VerificationWorkflow) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (bool, error) {
	user, err := w.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !w.creds.Verify(oldPassword, user.PasswordHash) {
		return false, nil
	}

	hash, err := w.creds.Hash(newPassword)
	if err != nil {
		return false, err
	}
	if err := w.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return false, err
	}
	return true, nil
}

func (w *VerificationWorkflow) verificationBody(firstName, token, email string) string {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s&email=%s", w.frontendURL, token, email)
	return fmt.Sprintf(
		`<p>Dear %s,</p><p>Please <a href="%s">verify your email address</a>. The link expires in %s.</p><p>If you didn't create an account, please ignore this email.</p>`,
		firstName, verifyURL, w.verifyTTL,
	)
}
