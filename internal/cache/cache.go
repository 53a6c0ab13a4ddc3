// Package cache is the fingerprint-keyed local store of pre-match, filtered
// raw events. It holds the loader's output, not the matched result: matching
// re-runs on every fetch, so a match-policy change never requires cache
// invalidation.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// Two sibling blobs per fingerprint.
const (
	operationExt = ".op.msgpack"
	stateExt     = ".state.msgpack"
)

// Cache stores event-slice pairs under a directory, one blob pair per key.
type Cache struct {
	dir string
	log zerolog.Logger
}

// New creates the cache directory if needed.
func New(dir string, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir: dir,
		log: log.With().Str("component", "cache").Logger(),
	}, nil
}

// Paths returns the blob pair locations for a key.
func (c *Cache) Paths(key string) (opPath, statePath string) {
	base := filepath.Join(c.dir, key)
	return base + operationExt, base + stateExt
}

// Load returns the cached pair for key, or ok=false when absent. A corrupted
// entry is deleted and reported absent; corruption never propagates to the
// caller, it just forces regeneration.
func (c *Cache) Load(key string) (ops []models.OperationEvent, states []models.StateChangeEvent, ok bool) {
	opPath, statePath := c.Paths(key)

	opData, err := os.ReadFile(opPath)
	if err != nil {
		return nil, nil, false
	}
	stateData, err := os.ReadFile(statePath)
	if err != nil {
		return nil, nil, false
	}

	if err := msgpack.Unmarshal(opData, &ops); err != nil {
		c.evict(key, err)
		return nil, nil, false
	}
	if err := msgpack.Unmarshal(stateData, &states); err != nil {
		c.evict(key, err)
		return nil, nil, false
	}

	c.log.Debug().Str("key", shortKey(key)).Int("operations", len(ops)).Int("states", len(states)).Msg("cache hit")
	return ops, states, true
}

// Store persists the pair durably. Each blob is written to a uniquely named
// temp file and renamed into place, so a concurrent reader never observes a
// partially-written entry.
func (c *Cache) Store(key string, ops []models.OperationEvent, states []models.StateChangeEvent) error {
	opPath, statePath := c.Paths(key)

	opData, err := msgpack.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encoding operation events: %w", err)
	}
	stateData, err := msgpack.Marshal(states)
	if err != nil {
		return fmt.Errorf("encoding state events: %w", err)
	}

	if err := writeAtomic(opPath, opData); err != nil {
		return err
	}
	if err := writeAtomic(statePath, stateData); err != nil {
		return err
	}

	c.log.Debug().Str("key", shortKey(key)).Msg("cache entry stored")
	return nil
}

// evict removes both blobs of a stale entry.
func (c *Cache) evict(key string, cause error) {
	c.log.Warn().Err(cause).Str("key", shortKey(key)).Msg("cache entry corrupted, regenerating")
	opPath, statePath := c.Paths(key)
	for _, p := range []string{opPath, statePath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", p).Msg("failed to remove stale cache file")
		}
	}
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing cache file: %w", err)
	}
	return nil
}

// shortKey truncates a digest for logging.
func shortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}
