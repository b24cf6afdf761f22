package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

const (
	defaultKeyPrefix  = "conv:session:"
	defaultActiveKey  = "conv:active"
	defaultSessionTTL = 24 * time.Hour
)

// Store is the persistence contract consumed by the orchestrator. Save has
// full-overwrite semantics; the orchestrator reads, modifies, and writes the
// whole session.
type Store interface {
	Load(ctx context.Context, conversationID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Activate(ctx context.Context, conversationID string) error
	Deactivate(ctx context.Context, conversationID string) error
	ListActive(ctx context.Context) ([]string, error)
}

// StoreOption customizes RedisStore.
type StoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithActiveIndexKey(key string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(key)
		if trimmed != "" {
			s.activeKey = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// RedisConfig configures the session store connection.
type RedisConfig struct {
	URL string        `envconfig:"URL" split_words:"true" required:"true"`
	TTL time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists sessions in Redis with a TTL and maintains the set of
// active conversation ids.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	activeKey string
	ttl       time.Duration
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	redisURL := strings.TrimSpace(cfg.URL)
	if redisURL == "" {
		return nil, errors.New("redis url is required")
	}
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	store := &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		activeKey: defaultActiveKey,
		ttl:       ttl,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// NewRedisStoreWithClient wires an existing client, mainly for tests.
func NewRedisStoreWithClient(client redis.UniversalClient, opts ...StoreOption) *RedisStore {
	store := &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		activeKey: defaultActiveKey,
		ttl:       defaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (r *RedisStore) Load(ctx context.Context, conversationID string) (*Session, error) {
	key, err := r.sessionKey(conversationID)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, contractx.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := sonic.UnmarshalString(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session loaded from store: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("session is nil")
	}
	key, err := r.sessionKey(s.ID)
	if err != nil {
		return err
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	payload, err := sonic.MarshalString(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Activate(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return contractx.ErrInvalidConversation
	}
	return r.client.SAdd(ctx, r.activeKey, conversationID).Err()
}

// Deactivate removes the conversation from the active index. The session
// record itself is retained until TTL expiry for debugging.
func (r *RedisStore) Deactivate(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return contractx.ErrInvalidConversation
	}
	return r.client.SRem(ctx, r.activeKey, conversationID).Err()
}

func (r *RedisStore) ListActive(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, r.activeKey).Result()
}

func (r *RedisStore) sessionKey(conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", contractx.ErrInvalidConversation
	}
	return r.keyPrefix + conversationID, nil
}
