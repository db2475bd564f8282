// Package confirm implements confirm-before-apply as a two-phase protocol.
// A guarded operation first registers a pending Action and hands the caller
// a single-use token; nothing changes until the same caller confirms the
// token. Cancelling or letting the token expire leaves state untouched.
package confirm

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/metrics"
)

// DefaultTTL bounds how long a pending confirmation stays valid.
const DefaultTTL = 5 * time.Minute

// ErrNotFound is returned by stores for unknown or expired tokens.
var ErrNotFound = errors.New("confirmation not found")

const (
	msgExpired   = "Confirmação expirada ou inexistente"
	msgNotOwner  = "Esta confirmação pertence a outro usuário"
	msgUnhandled = "Ação de confirmação desconhecida"
)

// Action is an operation awaiting confirmation.
type Action struct {
	Kind      string            `json:"kind"`
	Subject   string            `json:"subject"`
	Params    map[string]string `json:"params,omitempty"`
	UserID    string            `json:"user_id"`
	Prompt    string            `json:"prompt"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Pending is returned to the caller when an action is registered.
type Pending struct {
	Token     string    `json:"token"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Prompt    string    `json:"prompt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Executor applies a confirmed action and returns the response payload.
type Executor func(ctx context.Context, a Action) (interface{}, error)

// Store keeps pending actions keyed by token.
type Store interface {
	Put(ctx context.Context, token string, a Action, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Action, error)
	// Take atomically reads and removes the action.
	Take(ctx context.Context, token string) (*Action, error)
	Delete(ctx context.Context, token string) error
}

// Service registers executors and runs the request/confirm/cancel protocol.
type Service struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	executors map[string]Executor
}

func NewService(store Store, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:     store,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		executors: make(map[string]Executor),
	}
}

// Register binds an executor to an action kind. Registering a kind twice panics.
func (s *Service) Register(kind string, exec Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.executors[kind]; dup {
		panic(fmt.Sprintf("confirm: executor for %q registered twice", kind))
	}
	s.executors[kind] = exec
}

func (s *Service) executor(kind string) (Executor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executors[kind]
	return exec, ok
}

// Request stores a pending action for its user and returns the token.
func (s *Service) Request(ctx context.Context, a Action) (*Pending, error) {
	if _, ok := s.executor(a.Kind); !ok {
		return nil, apperr.Internal(fmt.Errorf("no executor for %q", a.Kind))
	}

	token, err := newToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	a.ExpiresAt = s.now().Add(s.ttl).UTC()
	if err := s.store.Put(ctx, token, a, s.ttl); err != nil {
		return nil, apperr.Internal(fmt.Errorf("store confirmation: %w", err))
	}

	metrics.Confirmations.WithLabelValues(a.Kind, "requested").Inc()
	return &Pending{
		Token:     token,
		Kind:      a.Kind,
		Subject:   a.Subject,
		Prompt:    a.Prompt,
		ExpiresAt: a.ExpiresAt,
	}, nil
}

// Confirm runs the action behind token on behalf of userID. When the
// executor fails the action is put back so the caller may retry before it
// expires.
func (s *Service) Confirm(ctx context.Context, token, userID string) (interface{}, error) {
	a, err := s.store.Take(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound(msgExpired)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("take confirmation: %w", err))
	}

	if a.UserID != userID {
		s.restore(ctx, token, *a)
		return nil, apperr.Forbidden(msgNotOwner)
	}

	exec, ok := s.executor(a.Kind)
	if !ok {
		return nil, apperr.Internal(errors.New(msgUnhandled + ": " + a.Kind))
	}

	result, err := exec(ctx, *a)
	if err != nil {
		metrics.Confirmations.WithLabelValues(a.Kind, metrics.OutcomeOf(err)).Inc()
		s.restore(ctx, token, *a)
		return nil, err
	}

	metrics.Confirmations.WithLabelValues(a.Kind, "confirmed").Inc()
	return result, nil
}

// Cancel discards the pending action without side effects.
func (s *Service) Cancel(ctx context.Context, token, userID string) error {
	a, err := s.store.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(msgExpired)
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("get confirmation: %w", err))
	}
	if a.UserID != userID {
		return apperr.Forbidden(msgNotOwner)
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return apperr.Internal(fmt.Errorf("delete confirmation: %w", err))
	}
	metrics.Confirmations.WithLabelValues(a.Kind, "cancelled").Inc()
	return nil
}

func (s *Service) restore(ctx context.Context, token string, a Action) {
	ttl := a.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.store.Put(ctx, token, a, ttl); err != nil {
		s.logger.Warn().Err(err).Str("kind", a.Kind).Msg("failed to restore pending confirmation")
	}
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
