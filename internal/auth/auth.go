// Package auth simulates the login flow: a delayed credential check, a session
// token, and an optional remembered token in persistent storage.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"logpanel/internal/logger"
	"logpanel/internal/persist"
)

// FailureMessage is the only message shown for a failed login.
const FailureMessage = "登录失败，请重试"

const (
	DefaultDelay    = time.Second
	DefaultTokenTTL = 24 * time.Hour
	DefaultUserName = "用户"
)

type Form struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Valid reports whether both email and password are filled in.
func (f Form) Valid() bool { return f.Email != "" && f.Password != "" }

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Response struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type Service struct {
	kv     persist.KV
	secret []byte
	delay  time.Duration
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger

	accountsMu sync.RWMutex
	accounts   map[string][]byte

	mu           sync.Mutex
	loading      bool
	errorMessage string
}

type Option func(*Service)

// WithKV stores remembered tokens under persist.KeyLoginToken.
func WithKV(kv persist.KV) Option { return func(s *Service) { s.kv = kv } }

// WithSecret signs tokens as JWTs. Without a secret tokens are opaque.
func WithSecret(secret []byte) Option { return func(s *Service) { s.secret = secret } }

func WithDelay(d time.Duration) Option { return func(s *Service) { s.delay = d } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func New(opts ...Option) *Service {
	s := &Service{
		delay:    DefaultDelay,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		accounts: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDefault(s.log)
	return s
}

// AddAccount registers a demo account. Once any account exists, logins must
// match one of them; otherwise every filled-in form is accepted.
func (s *Service) AddAccount(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}
	s.accountsMu.Lock()
	s.accounts[strings.ToLower(email)] = hash
	s.accountsMu.Unlock()
	return nil
}

func (s *Service) checkCredentials(form Form) error {
	if !form.Valid() {
		return fmt.Errorf("email and password are required")
	}
	s.accountsMu.RLock()
	defer s.accountsMu.RUnlock()
	if len(s.accounts) == 0 {
		return nil
	}
	hash, ok := s.accounts[strings.ToLower(form.Email)]
	if !ok {
		return fmt.Errorf("unknown account %s", form.Email)
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(form.Password))
}

func (s *Service) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// ErrorMessage returns the message of the last failed login.
func (s *Service) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMessage
}

func (s *Service) setState(loading bool, message string) {
	s.mu.Lock()
	s.loading = loading
	s.errorMessage = message
	s.mu.Unlock()
}

// Login waits for the simulated round trip and issues a token. Any failure,
// including cancellation of ctx, yields a generic failed Response.
func (s *Service) Login(ctx context.Context, form Form) Response {
	s.setState(true, "")

	resp, err := s.login(ctx, form)
	if err != nil {
		s.log.Warn("login failed", "email", form.Email, "error", err)
		s.setState(false, FailureMessage)
		return Response{Success: false, Message: FailureMessage}
	}
	s.setState(false, "")
	return resp
}

func (s *Service) login(ctx context.Context, form Form) (Response, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
	}

	if err := s.checkCredentials(form); err != nil {
		return Response{}, err
	}

	user := &User{ID: "1", Email: form.Email, Name: DefaultUserName}
	token, err := s.issue(*user)
	if err != nil {
		return Response{}, err
	}
	if form.RememberMe && s.kv != nil {
		if err := s.kv.Set(ctx, persist.KeyLoginToken, token); err != nil {
			return Response{}, fmt.Errorf("remember token: %w", err)
		}
	}
	return Response{Success: true, Token: token, User: user}, nil
}

func (s *Service) issue(user User) (string, error) {
	if len(s.secret) == 0 {
		return fmt.Sprintf("mock-token-%d", s.now().UnixMilli()), nil
	}
	return NewToken(s.secret, user, s.now(), s.ttl)
}

// Verify validates a JWT issued by Login.
func (s *Service) Verify(token string) (*Claims, error) {
	return ValidateToken(token, s.secret)
}

// RememberedToken returns the token saved by a remember-me login.
func (s *Service) RememberedToken(ctx context.Context) (string, bool) {
	if s.kv == nil {
		return "", false
	}
	token, ok, err := s.kv.Get(ctx, persist.KeyLoginToken)
	if err != nil {
		s.log.Warn("read remembered token", "error", err)
		return "", false
	}
	return token, ok && token != ""
}

// Logout forgets any remembered token and clears the last error.
func (s *Service) Logout(ctx context.Context) error {
	s.setState(false, "")
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, persist.KeyLoginToken)
}
