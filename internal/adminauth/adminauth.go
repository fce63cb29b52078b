// Package adminauth gates the admin surface behind a single shared
// passphrase. A successful login issues an HMAC-signed session token held
// only by the client; nothing about the session is persisted server-side, so
// a restart returns every visitor to read-only mode.
package adminauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadPassphrase = errors.New("invalid passphrase")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
)

type claims struct {
	JTI string `json:"jti"`
	Exp int64  `json:"exp"`
}

// Service verifies the passphrase against a pre-computed bcrypt hash and
// signs session tokens. There is no rate limiting and no lockout.
type Service struct {
	passHash []byte
	secret   []byte
	ttl      time.Duration
}

func NewService(passphraseHash, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		passHash: []byte(passphraseHash),
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

// Login compares the entered passphrase against the configured hash and, on
// match, returns a fresh session token.
func (s *Service) Login(passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrBadPassphrase
	}
	if err := bcrypt.CompareHashAndPassword(s.passHash, []byte(passphrase)); err != nil {
		return "", ErrBadPassphrase
	}
	return s.issue()
}

// Verify checks a session token's signature and expiry.
func (s *Service) Verify(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	payload, signature := parts[0], parts[1]

	expected := sign(s.secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidToken
	}
	var c claims
	if err := json.Unmarshal(decoded, &c); err != nil {
		return ErrInvalidToken
	}
	if c.JTI == "" || c.Exp == 0 {
		return ErrInvalidToken
	}
	if time.Now().Unix() >= c.Exp {
		return ErrExpiredToken
	}
	return nil
}

// HashPassphrase produces the bcrypt hash stored in configuration.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(hash), nil
}

func (s *Service) issue() (string, error) {
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	payloadBytes, err := json.Marshal(claims{
		JTI: hex.EncodeToString(jti),
		Exp: time.Now().Add(s.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	return payload + "." + sign(s.secret, payload), nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}
