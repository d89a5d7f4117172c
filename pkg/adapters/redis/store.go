package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tessera/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "tessera:page:"

// farFuture scores index entries of pages without a TTL (2100-01-01).
const farFuture = 4102444800

// Store implements ports.SchemaStore using Redis.
// Each page is a JSON string; a sorted set indexes the references by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for pages. Zero keeps pages forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for pages.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(pageRef string) string {
	return s.prefix + pageRef
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the schema and indexes its reference in one transaction.
func (s *Store) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	// MULTI/EXEC keeps the value and its index entry consistent.
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(pageRef), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: pageRef})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the schema from Redis.
func (s *Store) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	val, err := s.client.Get(ctx, s.key(pageRef)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Schema{}, domain.ErrPageNotFound
		}
		return domain.Schema{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var schema domain.Schema
	if err := json.Unmarshal(val, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return schema, nil
}

// Delete removes the page and its index entry.
func (s *Store) Delete(ctx context.Context, pageRef string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.key(pageRef))
		pipe.ZRem(ctx, s.indexKey(), pageRef)
		return nil
	})
	return err
}

// List returns live page references, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired pages: %w", err)
	}

	refs, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return refs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
