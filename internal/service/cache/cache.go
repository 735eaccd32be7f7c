package cache

import "time"

// BytesCache stores raw bytes under a key with a TTL. Used for action
// fingerprint dedup, where the value itself is irrelevant.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
