package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending actions in Redis so any replica can confirm them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(token string) string { return s.prefix + ":confirm:" + token }

func (s *RedisStore) Put(ctx context.Context, token string, a Action, ttl time.Duration) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	return s.client.Set(ctx, s.key(token), data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Action, error) {
	return decode(s.client.Get(ctx, s.key(token)).Bytes())
}

// Take uses GETDEL so two concurrent confirmations cannot both win.
func (s *RedisStore) Take(ctx context.Context, token string) (*Action, error) {
	return decode(s.client.GetDel(ctx, s.key(token)).Bytes())
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func decode(data []byte, err error) (*Action, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	return &a, nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	action  Action
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, token string, a Action, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{action: a, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) lookup(token string, remove bool) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok || !s.now().Before(e.expires) {
		delete(s.entries, token)
		return nil, ErrNotFound
	}
	if remove {
		delete(s.entries, token)
	}
	a := e.action
	return &a, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Action, error) {
	return s.lookup(token, false)
}

func (s *MemoryStore) Take(_ context.Context, token string) (*Action, error) {
	return s.lookup(token, true)
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
