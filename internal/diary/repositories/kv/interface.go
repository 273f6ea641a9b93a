package kv

import "context"

// Store is a string key/value area with a capacity quota.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites key. It fails with *common.QuotaError when the write
	// would push usage over the quota; the previous value is then kept.
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Usage returns the estimated bytes in use.
	Usage(ctx context.Context) (int64, error)
	// Keys lists keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func pairSize(key, value string) int64 {
	return int64(len(key) + len(value))
}
