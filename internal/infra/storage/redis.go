package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的键值存储。所有键加 namespace 前缀，
// Clear 只清除本 namespace 下的键，不影响同实例的其他数据。
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "custody"
	}
	return &RedisStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *RedisStore) namespaced(key string) string {
	return s.namespace + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get value from redis")
	}
	return value, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to put value to redis")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete value from redis")
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.namespaced(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		// 去掉 namespace 前缀，对调用方透明
		keys = append(keys, iter.Val()[len(s.namespace)+1:])
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan redis keys")
	}
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
