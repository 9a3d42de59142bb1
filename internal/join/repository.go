package join

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smarena/internal/constants"
)

// Side names one input of the join.
type Side string

const (
	SideRecord  Side = "record"
	SideJournal Side = "journal"
)

func (s Side) keyPrefix() string {
	if s == SideJournal {
		return constants.CacheKeyPrefixJoinJournal
	}
	return constants.CacheKeyPrefixJoinRecord
}

func (s Side) other() Side {
	if s == SideJournal {
		return SideRecord
	}
	return SideJournal
}

// Entry is one side of a pending join. Value is kept byte for byte.
type Entry struct {
	Value     []byte    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type Repository interface {
	SavePending(ctx context.Context, side Side, key string, entry Entry, ttl time.Duration) error
	// Pending returns nil without error when nothing is waiting.
	Pending(ctx context.Context, side Side, key string) (*Entry, error)
	// DeletePending removes the given sides, or both when none are named.
	DeletePending(ctx context.Context, key string, sides ...Side) error
	// MarkJoined claims key. It reports false when the key was already joined.
	MarkJoined(ctx context.Context, key string, ttl time.Duration) (bool, error)
	UnmarkJoined(ctx context.Context, key string) error
	IsJoined(ctx context.Context, key string) (bool, error)
}

type RedisRepository struct {
	client redis.UniversalClient
}

func NewRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) SavePending(ctx context.Context, side Side, key string, entry Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode pending %s: %w", side, err)
	}
	if err := r.client.Set(ctx, side.keyPrefix()+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Pending(ctx context.Context, side Side, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, side.keyPrefix()+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode pending %s: %w", side, err)
	}
	return &entry, nil
}

func (r *RedisRepository) DeletePending(ctx context.Context, key string, sides ...Side) error {
	if len(sides) == 0 {
		sides = []Side{SideRecord, SideJournal}
	}
	keys := make([]string, 0, len(sides))
	for _, side := range sides {
		keys = append(keys, side.keyPrefix()+key)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) MarkJoined(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, constants.CacheKeyPrefixJoinDone+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return ok, nil
}

func (r *RedisRepository) UnmarkJoined(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, constants.CacheKeyPrefixJoinDone+key).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) IsJoined(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, constants.CacheKeyPrefixJoinDone+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS failed: %w", err)
	}
	return n > 0, nil
}
