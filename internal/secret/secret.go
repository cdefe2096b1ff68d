// Package secret resolves the token-signing secret. The source is an
// explicit dependency of the auth service rather than a process-global,
// and any caching policy is visible in the wiring.
package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrEmpty is returned when a source resolves to nothing usable.
var ErrEmpty = errors.New("empty secret")

// Source yields the current signing secret.
type Source interface {
	Resolve(ctx context.Context) (string, error)
}

// Static is a fixed secret, typically from config.
type Static string

func (s Static) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", ErrEmpty
	}
	return string(s), nil
}

// File reads the secret from a file, e.g. one mounted from a secret
// manager. The value is re-read on every Resolve; wrap in Caching to
// bound that.
type File struct {
	Path string
}

func (f File) Resolve(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", ErrEmpty
	}
	return value, nil
}

// Caching wraps a Source with a TTL cache. A non-positive TTL caches the
// first resolved value for the life of the process. Concurrent refreshes
// collapse into a single upstream call.
type Caching struct {
	src   Source
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu        sync.RWMutex
	value     string
	resolved  bool
	expiresAt time.Time
}

func NewCaching(src Source, ttl time.Duration) *Caching {
	return &Caching{src: src, ttl: ttl, clock: time.Now}
}

// NewCachingWithClock is test-only for deterministic expiry.
func NewCachingWithClock(src Source, ttl time.Duration, clock func() time.Time) *Caching {
	c := NewCaching(src, ttl)
	c.clock = clock
	return c
}

func (c *Caching) Resolve(ctx context.Context) (string, error) {
	now := c.clock()

	c.mu.RLock()
	if c.fresh(now) {
		value := c.value
		c.mu.RUnlock()
		return value, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("secret", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.fresh(now) {
			value := c.value
			c.mu.RUnlock()
			return value, nil
		}
		c.mu.RUnlock()

		value, err := c.src.Resolve(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.value = value
		c.resolved = true
		if c.ttl > 0 {
			c.expiresAt = now.Add(c.ttl)
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// fresh reports whether the cached value is still usable; callers hold
// at least a read lock.
func (c *Caching) fresh(now time.Time) bool {
	if !c.resolved {
		return false
	}
	if c.ttl <= 0 {
		return true
	}
	return c.expiresAt.After(now)
}
