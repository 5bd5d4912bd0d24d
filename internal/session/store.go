// Package session holds authentication state for one client process: the
// current user, the persisted bearer token, and the login/signup/logout
// operations that mutate both.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nuverotech/gst-automation-tool/internal/api"
	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// AuthError is a login or signup rejection. Detail carries the
// server-supplied message when one exists; otherwise Error falls back to a
// generic message.
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Store is an explicitly constructed session store. One Store exists per
// process; Resolve runs at most once regardless of how often it is called.
type Store struct {
	client *api.Client
	tokens *TokenFile
	logger *log.Logger

	resolveOnce sync.Once

	mu      sync.Mutex
	user    *model.User
	loading bool
}

// New wires a Store to the API client and the token storage the client
// reads from.
func New(client *api.Client, tokens *TokenFile, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{client: client, tokens: tokens, logger: logger}
}

// Resolve turns a persisted token into a user exactly once. A failed
// resolution clears the token and leaves the session anonymous; the failure
// is logged, never surfaced. An expired token is cleared without a network
// call.
func (s *Store) Resolve(ctx context.Context) {
	s.resolveOnce.Do(func() {
		tok, ok := s.tokens.Token()
		if !ok {
			return
		}
		s.setLoading(true)
		defer s.setLoading(false)
		if exp, ok := TokenExpiry(tok); ok && time.Now().After(exp) {
			s.logger.Printf("stored token expired %s, clearing", exp.Format(time.RFC3339))
			_ = s.tokens.Clear()
			return
		}
		user, err := s.client.Me(ctx)
		if err != nil {
			s.logger.Printf("session resolution failed: %v", err)
			_ = s.tokens.Clear()
			return
		}
		s.setUser(user)
	})
}

// Loading is true only while the initial resolution is talking to the
// server.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentUser returns the resolved user or nil.
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is resolved.
func (s *Store) Authenticated() bool {
	return s.CurrentUser() != nil
}

// Login authenticates, persists the returned token, then resolves the user
// through the identity endpoint so the session reflects exactly what the
// server stores.
func (s *Store) Login(ctx context.Context, username, password string) (*model.User, error) {
	tok, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, authError(err)
	}
	if err := s.tokens.Save(tok.AccessToken); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	user, err := s.client.Me(ctx)
	if err != nil {
		return nil, authError(err)
	}
	s.setUser(user)
	return user, nil
}

// Signup registers the account and immediately logs in with the same
// credentials. Both its own rejections and login's propagate as *AuthError.
func (s *Store) Signup(ctx context.Context, req api.SignupRequest) (*model.User, error) {
	if _, err := s.client.Signup(ctx, req); err != nil {
		return nil, authError(err)
	}
	return s.Login(ctx, req.Username, req.Password)
}

// Logout clears the persisted token and the in-memory user. It never fails
// and is safe to call when no session exists.
func (s *Store) Logout() {
	_ = s.tokens.Clear()
	s.setUser(nil)
}

// TokenExpiry exposes the persisted token's expiry for display.
func (s *Store) TokenExpiry() (time.Time, bool) {
	tok, ok := s.tokens.Token()
	if !ok {
		return time.Time{}, false
	}
	return TokenExpiry(tok)
}

func (s *Store) setUser(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func authError(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &AuthError{Detail: apiErr.Detail, Err: err}
	}
	return &AuthError{Err: err}
}
