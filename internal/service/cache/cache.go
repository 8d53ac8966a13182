package cache

import "time"

// BytesCache stores serialized responses under string keys with a TTL.
// Implementations: in-process TTLCache, RedisCache.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
