package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
	"github.com/glossline/salon-bookings/internal/platform/mailer"
	"github.com/glossline/salon-bookings/internal/platform/tokens"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
	"github.com/glossline/salon-bookings/pkg/events"
	"github.com/glossline/salon-bookings/pkg/logger"
)

// adminPasswordBytes yields an 8-character generated password for new admins.
const adminPasswordBytes = 6

// GuestLinker claims guest bookings for a freshly registered user. Satisfied
// by booking.GuestLinkResolver.
type GuestLinker interface {
	LinkAllByEmail(ctx context.Context, customerEmail, userID string) ([]domain.Booking, error)
}

// AccountService owns registration, login and account administration. Token
// issuance is delegated to the JWT authority and the session refresher,
// verification mail to the workflow.
type AccountService struct {
	users        postgres.UsersRepo
	creds        *credentials.Store
	jwt          *tokens.Authority
	sessions     *SessionRefresher
	verification *VerificationWorkflow
	linker       GuestLinker
	mail         mailer.Service
	eventBus     events.EventBus
	clock        clock.Clock
}

func NewAccountService(
	users postgres.UsersRepo,
	creds *credentials.Store,
	jwt *tokens.Authority,
	sessions *SessionRefresher,
	verification *VerificationWorkflow,
	linker GuestLinker,
	mail mailer.Service,
	eventBus events.EventBus,
	clk clock.Clock,
) *AccountService {
	return &AccountService{
		users:        users,
		creds:        creds,
		jwt:          jwt,
		sessions:     sessions,
		verification: verification,
		linker:       linker,
		mail:         mail,
		eventBus:     eventBus,
		clock:        clk,
	}
}

// Register creates a USER account, claims any guest bookings made under the
// same email and kicks off email verification. Guest linking and the
// verification mail are best effort: the account exists either way.
func (s *AccountService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := s.creds.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user, err := s.users.Create(ctx, &domain.User{
		Role:         domain.RoleUser,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if linked, err := s.linker.LinkAllByEmail(ctx, user.Email, user.ID); err != nil {
		logger.ErrorContext(ctx, "failed to link guest bookings after registration", "error", err, "user_id", user.ID)
	} else if len(linked) > 0 {
		logger.InfoContext(ctx, "linked guest bookings to new account", "user_id", user.ID, "count", len(linked))
	}

	if err := s.verification.IssueVerification(ctx, user); err != nil {
		logger.ErrorContext(ctx, "failed to issue verification token", "error", err, "user_id", user.ID)
	}

	event := events.UserRegisteredEvent{UserID: user.ID, Email: user.Email, RegisteredAt: now}
	if err := s.eventBus.Publish(ctx, events.UserRegistered, event); err != nil {
		logger.WarnContext(ctx, "failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	access, err := s.jwt.Issue(user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &domain.AuthResponse{
		AccessToken: access,
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

// Login verifies credentials and hands out an access token plus a fresh
// refresh token. A second login invalidates the previous refresh token.
func (s *AccountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, domain.ErrInvalidCredentials
	}
	if !s.creds.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	access, err := s.jwt.Issue(user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.jwt.TTL().Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is returned unchanged and keeps its original expiry.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	ok, err := s.sessions.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	rt, err := s.sessions.Resolve(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.jwt.Issue(user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &domain.AuthResponse{
		AccessToken:  access,
		RefreshToken: rt.Token,
		ExpiresIn:    int64(s.jwt.TTL().Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

// Logout revokes every refresh token the user owns.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	return s.sessions.RevokeAll(ctx, userID)
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// UpdateProfile applies the provided fields and leaves the rest untouched.
// A password in the request is re-hashed only when it differs from the
// stored one.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.AvatarID != nil {
		user.AvatarID = *req.AvatarID
	}
	if req.Password != nil && *req.Password != "" && !s.creds.Verify(*req.Password, user.PasswordHash) {
		if len(*req.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
		}
		hash, err := s.creds.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.clock.Now()

	return s.users.Update(ctx, user)
}

// EnsureSuperAdmin creates the bootstrap SUPER_ADMIN account on startup if
// it is missing. Safe to call on every boot.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := s.creds.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}
	now := s.clock.Now()
	user, err := s.users.Create(ctx, &domain.User{
		Role:          domain.RoleSuperAdmin,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Super",
		LastName:      "Admin",
		Enabled:       true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil
		}
		return err
	}
	logger.InfoContext(ctx, "created super admin account", "user_id", user.ID)
	return nil
}

// CreateAdmin registers an ADMIN account with a generated password and
// mails the credentials. Unlike verification mail this send has to succeed:
// without it the generated password is lost, so a mail failure fails the
// whole operation.
func (s *AccountService) CreateAdmin(ctx context.Context, email, firstName, lastName string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	password, err := s.creds.RandomToken(adminPasswordBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin password: %w", err)
	}
	hash, err := s.creds.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := s.clock.Now()
	user, err := s.users.Create(ctx, &domain.User{
		Role:          domain.RoleAdmin,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     firstName,
		LastName:      lastName,
		Enabled:       true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>An administrator account has been created for you.</p>
<p><b>Email:</b> %s<br><b>Temporary password:</b> %s</p>
<p>Please sign in and change your password.</p>`,
		firstName, email, password,
	)
	if err := s.mail.Send(email, "Your administrator account", body); err != nil {
		return nil, fmt.Errorf("failed to send admin credentials: %w", err)
	}
	return user, nil
}

// RemoveAdmin deletes an ADMIN account. Accounts with any other role are
// refused so the endpoint cannot be used to delete regular users or the
// super admin.
func (s *AccountService) RemoveAdmin(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: %s is not an admin account", domain.ErrValidation, user.Email)
	}
	return s.users.Delete(ctx, user.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
