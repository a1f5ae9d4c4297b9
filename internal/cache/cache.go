// Package cache provides layered caching for oracle responses, so re-running
// the pipeline on identical evidence does not re-spend oracle calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// OracleKey generates a cache key for one extraction call. The key covers the
// provider, the model and the document content: a change to any of them must
// produce a miss.
func OracleKey(provider, model, docContent string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + docContent))
	return "fincascade:oracle:v1:" + hex.EncodeToString(hash[:])
}
