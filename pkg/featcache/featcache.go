// Package featcache caches the spectrograms computed for a source file so
// unchanged files are not re-segmented and re-transformed on the next build.
//
// Entries are keyed by a fingerprint of the file (path, size, modification
// time) and the build parameters that influence its features. Values are
// msgpack-encoded [][][]float32, one matrix per sub-clip.
//
// A nil *Cache is valid and never hits.
package featcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mari-linhares/deep-audio/pkg/audio/spectrogram"
	"github.com/mari-linhares/deep-audio/pkg/kv"
)

const keyPrefix = "feat"

// Cache stores per-file features in a kv.Store.
type Cache struct {
	store kv.Store
}

// New wraps store.
func New(store kv.Store) *Cache {
	return &Cache{store: store}
}

// Open opens a Badger-backed cache in dir.
func Open(dir string) (*Cache, error) {
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("featcache: %w", err)
	}
	return New(store), nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

// Fingerprint identifies the features of the file at path under params.
// params is msgpack-encoded, so it should be a struct or map of plain
// values.
func Fingerprint(path string, params any) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("featcache: %w", err)
	}
	p, err := msgpack.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("featcache: encode params: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|", path, info.Size(), info.ModTime().UnixNano())
	h.Write(p)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached features for fingerprint fp. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, fp string) (feats []spectrogram.Matrix, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.store.Get(ctx, kv.Key{keyPrefix, fp})
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("featcache: get: %w", err)
	}
	var raw [][][]float32
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("featcache: decode %s: %w", fp, err)
	}
	feats = make([]spectrogram.Matrix, len(raw))
	for i, m := range raw {
		feats[i] = m
	}
	return feats, true, nil
}

// Put stores feats under fingerprint fp.
func (c *Cache) Put(ctx context.Context, fp string, feats []spectrogram.Matrix) error {
	if c == nil {
		return nil
	}
	raw := make([][][]float32, len(feats))
	for i, m := range feats {
		raw[i] = m
	}
	data, err := msgpack.Marshal(raw)
	if err != nil {
		return fmt.Errorf("featcache: encode: %w", err)
	}
	if err := c.store.Set(ctx, kv.Key{keyPrefix, fp}, data); err != nil {
		return fmt.Errorf("featcache: put: %w", err)
	}
	return nil
}

// Stats summarises the cache contents.
type Stats struct {
	Entries int   `json:"entries" yaml:"entries"`
	Bytes   int64 `json:"bytes" yaml:"bytes"`
}

// Stats walks all cached entries.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if c == nil {
		return s, nil
	}
	for e, err := range c.store.List(ctx, kv.Key{keyPrefix}) {
		if err != nil {
			return s, fmt.Errorf("featcache: list: %w", err)
		}
		s.Entries++
		s.Bytes += int64(len(e.Value))
	}
	return s, nil
}

// Clear removes every cached entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var keys []kv.Key
	for e, err := range c.store.List(ctx, kv.Key{keyPrefix}) {
		if err != nil {
			return 0, fmt.Errorf("featcache: list: %w", err)
		}
		keys = append(keys, e.Key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.store.BatchDelete(ctx, keys); err != nil {
		return 0, fmt.Errorf("featcache: clear: %w", err)
	}
	return len(keys), nil
}
