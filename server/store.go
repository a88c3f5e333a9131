package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sketch2web/generator"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore 保存每个交互会话的状态。Get 返回副本，修改后需 Save；
// 同一会话并发生成时以最后一次 Save 为准。
type SessionStore interface {
	Get(ctx context.Context, id string) (*generator.Session, error)
	Save(ctx context.Context, sess *generator.Session) error
}

type memoryEntry struct {
	sess    generator.Session
	expires time.Time
}

// MemoryStore keeps sessions in process. ttl <= 0 disables expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*generator.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return cloneSession(e.sess), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *generator.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{sess: *cloneSession(*sess)}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.sessions[sess.ID] = e
	return nil
}

func cloneSession(s generator.Session) *generator.Session {
	s.History = append([]generator.Turn(nil), s.History...)
	return &s
}

const redisKeyPrefix = "sketch2web:session:"

// RedisStore keeps sessions as JSON in Redis/Valkey with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// ConnectRedis creates a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*generator.Session, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var sess generator.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *generator.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id required")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}
