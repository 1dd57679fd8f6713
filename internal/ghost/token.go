package ghost

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Admin token errors.
var (
	ErrInvalidAdminKey = errors.New("admin API key must be id:secret with a hex secret")
)

// TokenTTL is how long an admin token stays valid. Ghost rejects anything above 5 minutes.
const TokenTTL = 5 * time.Minute

// Audience is the aud claim Ghost expects on admin tokens.
const Audience = "/admin/"

// AdminKey is a parsed Ghost Admin API key.
type AdminKey struct {
	ID     string
	Secret []byte
}

// ParseAdminKey splits "id:secret" and hex-decodes the secret.
func ParseAdminKey(raw string) (AdminKey, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || id == "" || secret == "" {
		return AdminKey{}, ErrInvalidAdminKey
	}

	decoded, err := hex.DecodeString(secret)
	if err != nil {
		return AdminKey{}, fmt.Errorf("%w: %w", ErrInvalidAdminKey, err)
	}

	return AdminKey{ID: id, Secret: decoded}, nil
}

// Token signs a short-lived HS256 admin token issued at now.
func (k AdminKey) Token(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = k.ID

	signed, err := t.SignedString(k.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}

	return signed, nil
}

// AdminToken parses raw and signs a token issued at now.
func AdminToken(raw string, now time.Time) (string, error) {
	key, err := ParseAdminKey(raw)
	if err != nil {
		return "", err
	}

	return key.Token(now)
}
