// Package token issues and verifies the signed session tokens that carry the
// admin claim.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. Subject holds the user id; Admin is the
// trust-elevated capability.
type Claims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into a request identity.
func (c *Claims) Identity() domain.Identity {
	return domain.Identified(c.Subject, c.Email, c.Admin)
}

// Sign creates an HS256 token for id valid for ttl from now.
func Sign(secret, issuer string, id domain.Identity, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" || ttl <= 0 || id.UserID == "" {
		return "", time.Time{}, errors.New("invalid params for signing token")
	}

	exp := now.Add(ttl)
	claims := &Claims{
		Email: id.Email,
		Admin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies raw and returns its claims. Only HS256 is accepted. When
// issuer is non-empty the iss claim must match.
func Parse(secret, issuer, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
