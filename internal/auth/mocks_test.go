package auth_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glossline/salon-bookings/internal/domain"
)

// ---------- Mocks ----------

type memUsersRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*domain.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{users: make(map[string]*domain.User)}
}

func (m *memUsersRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, domain.ErrDuplicate
		}
	}
	m.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsersRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsersRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsersRepo) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsersRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsersRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsersRepo) SetVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmailVerificationToken = &token
	u.EmailVerificationExpiry = &expiresAt
	return nil
}

func (m *memUsersRepo) MarkEmailVerified(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	u.EmailVerificationExpiry = nil
	return nil
}

func (m *memUsersRepo) SetResetToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
	return nil
}

func (m *memUsersRepo) ResetPassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (m *memUsersRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsersRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsersRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

type memRefreshRepo struct {
	mu     sync.Mutex
	nextID int
	tokens map[string]*domain.RefreshToken // by token
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *memRefreshRepo) Replace(_ context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, k)
		}
	}
	m.nextID++
	rt := &domain.RefreshToken{
		ID:        fmt.Sprintf("rt-%d", m.nextID),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	m.tokens[token] = rt
	cp := *rt
	return &cp, nil
}

func (m *memRefreshRepo) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *memRefreshRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	sendErr  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(toEmail, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: htmlBody})
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type stubLinker struct {
	linked    []string // emails it was asked to link
	returning []domain.Booking
	err       error
}

func (s *stubLinker) LinkAllByEmail(_ context.Context, customerEmail, userID string) ([]domain.Booking, error) {
	s.linked = append(s.linked, customerEmail)
	if s.err != nil {
		return nil, s.err
	}
	return s.returning, nil
}
