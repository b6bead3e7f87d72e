package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossline/salon-bookings/internal/auth"
	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/credentials"
	"github.com/glossline/salon-bookings/internal/platform/tokens"
	"github.com/glossline/salon-bookings/pkg/events"
)

type accountsFixture struct {
	accounts *auth.AccountService
	users    *memUsersRepo
	refresh  *memRefreshRepo
	mail     *mockMailer
	linker   *stubLinker
	creds    *credentials.Store
	clk      *clock.Fixed
}

func newAccountsFixture(t *testing.T) *accountsFixture {
	t.Helper()
	users := newMemUsersRepo()
	refresh := newMemRefreshRepo()
	mail := &mockMailer{}
	linker := &stubLinker{}
	creds := credentials.NewStore()
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	authority := tokens.NewAuthority("test-secret", 24*time.Hour, clk)
	sessions := auth.NewSessionRefresher(refresh, creds, clk, 48*time.Hour)
	verification := auth.NewVerificationWorkflow(users, creds, mail, clk, 24*time.Hour, 2*time.Hour, "http://localhost:5173")
	accounts := auth.NewAccountService(users, creds, authority, sessions, verification, linker, mail, events.NopEventBus{}, clk)

	return &accountsFixture{
		accounts: accounts,
		users:    users,
		refresh:  refresh,
		mail:     mail,
		linker:   linker,
		creds:    creds,
		clk:      clk,
	}
}

func registerReq() *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "+15550001111",
	}
}

func TestRegister(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	resp, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken, "no session until login")
	assert.Equal(t, domain.RoleUser, resp.User.Role)
	assert.False(t, resp.User.EmailVerified)

	// Guest bookings under the email get claimed.
	require.Equal(t, []string{"ada@example.com"}, f.linker.linked)

	// Verification mail went out.
	assert.Equal(t, 1, f.mail.sentCount())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, registerReq())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRegisterSurvivesLinkerAndMailFailure(t *testing.T) {
	f := newAccountsFixture(t)
	f.linker.err = assert.AnError
	f.mail.sendErr = assert.AnError

	resp, err := f.accounts.Register(context.Background(), registerReq())
	require.NoError(t, err, "registration must not fail on best-effort steps")
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	f := newAccountsFixture(t)

	req := registerReq()
	req.Password = "short"
	_, err := f.accounts.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogin(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	resp, err := f.accounts.Login(ctx, &domain.LoginRequest{Email: "Ada@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64((24 * time.Hour).Seconds()), resp.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAccountsFixture(t)

	// Unknown account and bad password are the same error.
	_, err := f.accounts.Login(context.Background(), &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	resp, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	user, err := f.users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	user.Enabled = false
	_, err = f.users.Update(ctx, user)
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)
	login, err := f.accounts.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := f.accounts.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, login.RefreshToken, resp.RefreshToken, "refresh token is not rotated on use")
}

func TestRefreshInvalidToken(t *testing.T) {
	f := newAccountsFixture(t)

	_, err := f.accounts.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)
	login, err := f.accounts.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	f.clk.Advance(49 * time.Hour)
	_, err = f.accounts.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "expired and unknown are the same failure")
}

func TestLogout(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	resp, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)
	login, err := f.accounts.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.accounts.Logout(ctx, resp.User.ID))

	_, err = f.accounts.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	resp, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	newName := "Adelaide"
	newCity := "London"
	updated, err := f.accounts.UpdateProfile(ctx, resp.User.ID, &domain.UpdateUserRequest{
		FirstName: &newName,
		City:      &newCity,
	})
	require.NoError(t, err)
	assert.Equal(t, "Adelaide", updated.FirstName)
	assert.Equal(t, "London", updated.City)
	assert.Equal(t, "Lovelace", updated.LastName, "untouched fields survive")
}

func TestUpdateProfilePassword(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	resp, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)

	same := "password123"
	before, err := f.users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	_, err = f.accounts.UpdateProfile(ctx, resp.User.ID, &domain.UpdateUserRequest{Password: &same})
	require.NoError(t, err)
	after, err := f.users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash, "same password is not re-hashed")

	changed := "password456"
	_, err = f.accounts.UpdateProfile(ctx, resp.User.ID, &domain.UpdateUserRequest{Password: &changed})
	require.NoError(t, err)
	final, err := f.users.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, f.creds.Verify("password456", final.PasswordHash))
}

func TestEnsureSuperAdmin(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.EnsureSuperAdmin(ctx, "root@example.com", "bootstrap-pass"))

	user, err := f.accounts.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, user.Role)
	assert.True(t, user.EmailVerified)

	// Second boot is a no-op.
	require.NoError(t, f.accounts.EnsureSuperAdmin(ctx, "root@example.com", "bootstrap-pass"))
	again, err := f.accounts.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestEnsureSuperAdminUnconfigured(t *testing.T) {
	f := newAccountsFixture(t)
	require.NoError(t, f.accounts.EnsureSuperAdmin(context.Background(), "", ""))
	users, err := f.accounts.ListUsers(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateAdmin(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	admin, err := f.accounts.CreateAdmin(ctx, "staff@example.com", "Grace", "Hopper")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	require.Equal(t, 1, f.mail.sentCount())
	assert.Equal(t, "staff@example.com", f.mail.last().to)
	assert.Contains(t, f.mail.last().body, "Temporary password:")
}

func TestCreateAdminMailFailure(t *testing.T) {
	f := newAccountsFixture(t)
	f.mail.sendErr = assert.AnError

	// The generated password only exists in the mail, so this send failing
	// fails the whole operation.
	_, err := f.accounts.CreateAdmin(context.Background(), "staff@example.com", "Grace", "Hopper")
	assert.Error(t, err)
}

func TestRemoveAdmin(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	_, err := f.accounts.CreateAdmin(ctx, "staff@example.com", "Grace", "Hopper")
	require.NoError(t, err)
	require.NoError(t, f.accounts.RemoveAdmin(ctx, "staff@example.com"))

	_, err = f.accounts.GetByEmail(ctx, "staff@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveAdminRefusesOtherRoles(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerReq())
	require.NoError(t, err)
	err = f.accounts.RemoveAdmin(ctx, "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.accounts.RemoveAdmin(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
