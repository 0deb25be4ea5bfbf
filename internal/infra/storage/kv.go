package storage

import "context"

// KVStore 键值/blob 持久化契约。Vault 和 PIN 认证器的所有持久化都经由该接口，
// 调用方不得绕过组件直接访问存储。
//
// Get 在键不存在时返回 (nil, nil)，由调用方决定缺失语义。
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}
