package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/zaiko-app/zaiko/internal/model"
)

// ProviderPassword signs in with a username and password.
const ProviderPassword = "password"

// Credentials are the secrets handed to a sign-in provider.
type Credentials struct {
	Username string
	Password string
}

type savedSession struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Sessions tracks the signed-in user and tells subscribers when it changes.
// When path is set the token survives restarts in that file.
type Sessions struct {
	client *Client
	path   string

	mu      sync.Mutex
	current *model.Session
	loaded  bool
	subs    map[int]func(*model.Session)
	nextSub int
}

// NewSessions returns a session provider backed by c. An empty path keeps
// the session in memory only.
func NewSessions(c *Client, path string) *Sessions {
	return &Sessions{
		client: c,
		path:   path,
		subs:   make(map[int]func(*model.Session)),
	}
}

// Current returns the active session, or nil when nobody is signed in. The
// first call restores a saved token and checks it with the server; a token
// the server rejects is discarded.
func (s *Sessions) Current(ctx context.Context) (*model.Session, error) {
	s.mu.Lock()
	if s.loaded {
		cur := s.current
		s.mu.Unlock()
		return cur, nil
	}
	s.mu.Unlock()

	token, err := s.readToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
		return nil, nil
	}

	s.client.SetToken(token)
	var sess model.Session
	err = s.client.doJSON(ctx, http.MethodGet, "/api/session", nil, &sess)
	if errors.Is(err, ErrUnauthorized) {
		s.client.SetToken("")
		if err := s.removeToken(); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.loaded = true
		s.current = nil
		s.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.Token = token
	s.mu.Lock()
	s.loaded = true
	s.current = &sess
	s.mu.Unlock()
	return &sess, nil
}

// Subscribe registers fn to run after every sign-in and sign-out. The
// returned function removes the subscription.
func (s *Sessions) Subscribe(fn func(*model.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SignIn authenticates with the named provider and stores the new session.
func (s *Sessions) SignIn(ctx context.Context, provider string, creds Credentials) (*model.Session, error) {
	if provider != ProviderPassword {
		return nil, fmt.Errorf("unsupported sign-in provider %q", provider)
	}

	req := map[string]string{
		"provider": provider,
		"username": creds.Username,
		"password": creds.Password,
	}
	var resp struct {
		Token   string        `json:"token"`
		Session model.Session `json:"session"`
	}
	if err := s.client.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}

	s.client.SetToken(resp.Token)
	if err := s.writeToken(resp.Token); err != nil {
		return nil, err
	}

	sess := resp.Session
	sess.Token = resp.Token
	s.set(&sess)
	return &sess, nil
}

// SignOut revokes the token on the server and forgets it locally. A token
// the server already rejects still counts as signed out.
func (s *Sessions) SignOut(ctx context.Context) error {
	if _, err := s.Current(ctx); err != nil {
		return err
	}

	if s.client.Token() != "" {
		err := s.client.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
		if err != nil && !errors.Is(err, ErrUnauthorized) {
			return err
		}
	}

	s.client.SetToken("")
	if err := s.removeToken(); err != nil {
		return err
	}
	s.set(nil)
	return nil
}

// ChangePassword changes the signed-in user's password.
func (s *Sessions) ChangePassword(ctx context.Context, current, next string) error {
	req := map[string]string{"current_password": current, "new_password": next}
	return s.client.doJSON(ctx, http.MethodPut, "/api/auth/password", req, nil)
}

func (s *Sessions) set(sess *model.Session) {
	s.mu.Lock()
	s.current = sess
	s.loaded = true
	subs := make([]func(*model.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess)
	}
}

// readToken returns the saved token for this client's server, or "".
func (s *Sessions) readToken() (string, error) {
	if s.path == "" {
		return s.client.Token(), nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return "", fmt.Errorf("parsing session file %s: %w", s.path, err)
	}
	if saved.URL != s.client.BaseURL() {
		return "", nil
	}
	return saved.Token, nil
}

func (s *Sessions) writeToken(token string) error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(savedSession{URL: s.client.BaseURL(), Token: token})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func (s *Sessions) removeToken() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
