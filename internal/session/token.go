package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFile persists the bearer token between runs. It satisfies
// api.TokenSource so the HTTP client reads the same storage login writes.
type TokenFile struct {
	path string
}

// NewTokenFile points at the configured token path. Nothing is created until
// Save is called.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Token returns the persisted token, if any.
func (t *TokenFile) Token() (string, bool) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Save writes the token with owner-only permissions.
func (t *TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the token. Clearing an absent token is not an error.
func (t *TokenFile) Clear() error {
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// TokenExpiry reports the exp claim of the bearer token without verifying
// its signature. Verification is the server's job; the claim is only used to
// skip requests that are guaranteed to be rejected and to show expiry in
// `auth status`.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
