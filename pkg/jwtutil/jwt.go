package jwtutil

import (
	"time"

	"notes-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Claims represents the JWT claims for user authentication. The embedded
// role and tenant fields are a hint only; every request re-verifies them
// against the store before use.
type Claims struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantID   uint   `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	jwt.RegisteredClaims
}

// Signer issues and validates signed, time-bound tokens. It is a pure
// function of its inputs, the signing key, and the clock.
type Signer struct {
	key []byte
	ttl time.Duration
}

// NewSigner builds a Signer from JWT configuration.
func NewSigner(cfg *config.JWTConfig) *Signer {
	ttl := time.Duration(cfg.ExpirationHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{key: []byte(cfg.SigningKey), ttl: ttl}
}

// Issue creates a signed token carrying the user's identity and tenant.
func (s *Signer) Issue(userID uint, email, role string, tenantID uint, tenantSlug string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     userID,
		Email:      email,
		Role:       role,
		TenantID:   tenantID,
		TenantSlug: tenantSlug,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate verifies the signature and expiry and returns the parsed claims.
// It does not check that the user still exists; that is the resolver's job.
func (s *Signer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
