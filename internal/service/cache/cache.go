// Package cache provides the short-TTL response cache sitting in
// front of the analysis endpoints. Values are pre-serialized JSON
// envelopes, so the cache only ever moves bytes.
package cache

import "time"

// BytesCache stores raw bytes with a per-entry TTL. A miss is
// (nil, false, nil); err reports backend failures only.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
