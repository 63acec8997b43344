package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/category/explorer"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 30 * 24 * time.Hour

// RedisStore keeps the expanded category ids of every merchant in a Redis
// set, explorer:expanded:{merchant}.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// ForMerchant returns the store of one merchant's explorer.
func (s *RedisStore) ForMerchant(merchantID string) explorer.StateStore {
	return &merchantStore{s: s, key: fmt.Sprintf("explorer:expanded:%s", merchantID)}
}

type merchantStore struct {
	s   *RedisStore
	key string
}

func (m *merchantStore) Save(ctx context.Context, ids []int64) error {
	_, err := m.s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, m.key)
		if len(ids) == 0 {
			return nil
		}
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = strconv.FormatInt(id, 10)
		}
		pipe.SAdd(ctx, m.key, members...)
		pipe.Expire(ctx, m.key, m.s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", m.key, err)
	}
	return nil
}

func (m *merchantStore) Load(ctx context.Context) ([]int64, error) {
	members, err := m.s.client.SMembers(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", m.key, err)
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
