package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/ripplekit/core"
)

// RedisStore 是 Redis 实现的 Store。
// 生产环境常用，支持持久化、集群、哨兵等。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))
	for i, k := range keys {
		if vals[i] != nil {
			if s, ok := vals[i].(string); ok {
				result[k] = []byte(s)
			}
		}
	}
	return result, nil
}

func (r *RedisStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	pipe := r.client.Pipeline()
	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}

	for k, v := range kvs {
		pipe.Set(ctx, k, v, expiration)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.Store = (*RedisStore)(nil)

// RedisHistoryStore 从 Redis List 读取用户正反馈历史。
// 实际 key 为 {KeyPrefix}:{UserID}，元素为物品 ID 的十进制字符串。
type RedisHistoryStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisHistoryStore(addr string, db int, keyPrefix string) (*RedisHistoryStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	if keyPrefix == "" {
		keyPrefix = "user:history"
	}
	return &RedisHistoryStore{client: client, keyPrefix: keyPrefix}, nil
}

func (h *RedisHistoryStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", h.keyPrefix, userID)
}

// GetUserHistory 用户不存在时返回空列表，不报错；
// 列表里混入非整数元素按数据完整性错误处理。
func (h *RedisHistoryStore) GetUserHistory(ctx context.Context, userID int64) ([]int64, error) {
	vals, err := h.client.LRange(ctx, h.key(userID), 0, -1).Result()
	if err == redis.Nil {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("store: malformed item id %q in %s", v, h.key(userID)))
		}
		out = append(out, id)
	}
	return out, nil
}

// Append 追加一条正反馈记录。
func (h *RedisHistoryStore) Append(ctx context.Context, userID, itemID int64) error {
	return h.client.RPush(ctx, h.key(userID), strconv.FormatInt(itemID, 10)).Err()
}

func (h *RedisHistoryStore) Close() error {
	return h.client.Close()
}

var _ core.HistoryStore = (*RedisHistoryStore)(nil)
