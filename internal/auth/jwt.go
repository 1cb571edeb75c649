// Package auth issues and validates the bearer tokens that identify a session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zaiko-app/zaiko/internal/model"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Session returns the session the claims describe.
func (c *Claims) Session() *model.Session {
	s := &model.Session{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

// DefaultTokenExpiry is the token lifetime when an Issuer has none set.
const DefaultTokenExpiry = 7 * 24 * time.Hour

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	Secret []byte
	Expiry time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer using secret and the default expiry.
func NewIssuer(secret string) *Issuer {
	return &Issuer{Secret: []byte(secret), Expiry: DefaultTokenExpiry}
}

func (is *Issuer) clock() time.Time {
	if is.now != nil {
		return is.now()
	}
	return time.Now()
}

// Issue creates a signed token for user with a unique JTI.
func (is *Issuer) Issue(user *model.User) (string, *Claims, error) {
	if len(is.Secret) == 0 {
		return "", nil, errors.New("signing secret is empty")
	}

	expiry := is.Expiry
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}

	now := is.clock()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(is.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses and validates a token, returning its claims.
func (is *Issuer) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return is.Secret, nil
	}, jwt.WithTimeFunc(is.clock))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no id")
	}

	return claims, nil
}
