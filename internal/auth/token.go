// Package auth signs the credential carried in the logon message.
package auth

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is the iss claim expected by the venue.
	Issuer = "app.power.trade"

	// TokenTTL is how long a signed credential stays valid.
	TokenTTL = 18000 * time.Second
)

// LoadPrivateKey reads a PEM encoded EC private key.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return key, nil
}

// TokenSigner issues ES256 credentials for one API URI.
type TokenSigner struct {
	key *ecdsa.PrivateKey
	uri string
	now func() time.Time
}

// NewTokenSigner signs with key for the given API URI.
func NewTokenSigner(key *ecdsa.PrivateKey, uri string) *TokenSigner {
	return &TokenSigner{key: key, uri: uri, now: time.Now}
}

// Sign returns a compact JWT whose subject is apiKey.
func (s *TokenSigner) Sign(apiKey string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"client": "api",
		"sub":    apiKey,
		"uri":    s.uri,
		"nonce":  now.Unix(),
		"iss":    Issuer,
		"iat":    jwt.NewNumericDate(now),
		"exp":    jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", apiKey, err)
	}
	return token, nil
}

// Token makes TokenSigner usable as logon credentials.
func (s *TokenSigner) Token(apiKey string) (string, error) {
	return s.Sign(apiKey)
}
