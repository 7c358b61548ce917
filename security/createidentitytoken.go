package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "acceptrec"

// IdentityClaims includes Identity and standard JWT claims
type Identity struct {
	ID       string `json:"nameid"`
	Name     string `json:"unique_name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	ClientID string `json:"client_id,omitempty"`
}

type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

// Principal converts verified claims into the caller passed to services.
func (c *IdentityClaims) Principal() Principal {
	return Principal{
		UserID:   c.Identity.ID,
		Email:    c.Email,
		Name:     c.Name,
		Role:     c.Role,
		ClientID: c.ClientID,
	}
}

// DecodeSecret decodes the base64 signing secret from configuration.
func DecodeSecret(base64Secret string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	return secret, nil
}

func CreateIdentityToken(p Principal, secret []byte, expiresIn time.Duration) (string, error) {
	if !p.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", p.Role)
	}
	if p.Role == RoleClient && p.ClientID == "" {
		return "", errors.New("client tokens need a client id")
	}
	now := time.Now()
	claims := IdentityClaims{
		Identity: Identity{
			ID:       p.UserID,
			Name:     p.Name,
			Email:    p.Email,
			Role:     p.Role,
			ClientID: p.ClientID,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	// Use HS256 signing method (symmetric key)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

// ParseIdentityToken verifies signature, expiry and role of a token.
func ParseIdentityToken(tokenStr string, secret []byte) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", jwt.ErrTokenInvalidClaims, claims.Role)
	}
	return claims, nil
}
