package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authority issues and verifies self-contained HS256 access tokens. Validity
// is decided entirely by the signature and the clock; there is no store
// lookup and no revocation before expiry.
type Authority struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewAuthority(secret string, ttl time.Duration, clk clock.Clock) *Authority {
	return &Authority{secret: []byte(secret), ttl: ttl, clock: clk}
}

func (a *Authority) TTL() time.Duration { return a.ttl }

func (a *Authority) Issue(subjectEmail, role string) (string, error) {
	now := a.clock.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Audience:  []string{"salon-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject email of a valid token. Expired tokens map to
// domain.ErrExpiredToken, everything else wrong with the token to
// domain.ErrInvalidToken.
func (a *Authority) Verify(tokenString string) (string, error) {
	claims, err := a.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (a *Authority) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
