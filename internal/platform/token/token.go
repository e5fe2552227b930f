// Package token validates the bearer tokens collaborators present. Tokens are
// HS256-signed with a shared key; this core never issues them.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity asserted by a collaborator token.
type Claims struct {
	Subject string
	Role    string
}

type wireClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 tokens against the shared signing key.
type Validator struct {
	key []byte
}

// NewValidator builds a validator; an empty key disables authentication and
// is only acceptable in tests and local development.
func NewValidator(key string) *Validator {
	return &Validator{key: []byte(key)}
}

// Enabled reports whether a signing key is configured.
func (v *Validator) Enabled() bool {
	return len(v.key) > 0
}

// ValidateToken parses and verifies the token string.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &Claims{Subject: claims.Subject, Role: claims.Role}, nil
}
