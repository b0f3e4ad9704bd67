package tickets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Tickets are stored as JSON under key: "ticket:<token>" with TTL = expiresAt - now
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based ticket repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "ticket:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(token string) string {
	return r.prefix + token
}

func (r *RedisRepository) Create(ctx context.Context, t *Ticket) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	exp := time.Until(t.ExpiresAt)
	if exp <= 0 {
		// ensure a minimal TTL so Redis won't store expired tickets
		exp = time.Second
	}
	return r.client.Set(ctx, r.key(t.Token), b, exp).Err()
}

func (r *RedisRepository) GetByToken(ctx context.Context, token string) (*Ticket, error) {
	b, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var t Ticket
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	// If the ticket expired from the perspective of the stored value, treat as missing
	if time.Now().UTC().After(t.ExpiresAt) {
		_ = r.client.Del(ctx, r.key(token)).Err()
		return nil, nil
	}
	return &t, nil
}

func (r *RedisRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}
