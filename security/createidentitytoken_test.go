package security

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIdentityTokenRoundTrip(t *testing.T) {
	p := Principal{UserID: "u1", Email: "site@client.test", Name: "Site Manager", Role: RoleClient, ClientID: "c1"}

	token, err := CreateIdentityToken(p, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseIdentityToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, p, claims.Principal())
}

func TestParseIdentityTokenRejects(t *testing.T) {
	valid, err := CreateIdentityToken(Principal{UserID: "u1", Role: RoleDriver}, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := CreateIdentityToken(Principal{UserID: "u1", Role: RoleDriver}, testSecret, -time.Minute)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, IdentityClaims{
		Identity:         Identity{ID: "u1", Role: RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		Identity:         Identity{ID: "u1", Role: "owner"},
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"Wrong secret", valid, []byte("another-secret-another-secret-00")},
		{"Expired", expired, testSecret},
		{"Unsigned", unsigned, testSecret},
		{"Unknown role", badRole, testSecret},
		{"Garbage", "not-a-token", testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentityToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestCreateIdentityTokenValidation(t *testing.T) {
	_, err := CreateIdentityToken(Principal{UserID: "u1", Role: "owner"}, testSecret, time.Hour)
	assert.Error(t, err)

	_, err = CreateIdentityToken(Principal{UserID: "u1", Role: RoleClient}, testSecret, time.Hour)
	assert.Error(t, err)
}

func TestDecodeSecret(t *testing.T) {
	secret, err := DecodeSecret(base64.StdEncoding.EncodeToString(testSecret))
	require.NoError(t, err)
	assert.Equal(t, testSecret, secret)

	_, err = DecodeSecret("%%%")
	assert.Error(t, err)
	_, err = DecodeSecret("")
	assert.Error(t, err)
}

func TestPrincipalAccess(t *testing.T) {
	tests := []struct {
		name     string
		p        Principal
		owner    string
		expected bool
	}{
		{"Driver owns", Principal{UserID: "u1", Role: RoleDriver}, "u1", true},
		{"Driver other", Principal{UserID: "u1", Role: RoleDriver}, "u2", false},
		{"Admin", Principal{UserID: "a", Role: RoleAdmin}, "u2", true},
		{"Super admin", Principal{UserID: "s", Role: RoleSuperAdmin}, "u2", true},
		{"Client", Principal{UserID: "u2", Role: RoleClient, ClientID: "c1"}, "u2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.p.CanAccessTimesheet(tt.owner))
		})
	}
}
