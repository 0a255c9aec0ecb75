package datastore

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gauge-automation/lib/utils"

	"github.com/chebyrash/promise"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ipfs/go-datastore"
	flatfs "github.com/ipfs/go-ds-flatfs"
	"github.com/moznion/go-optional"
)

var ErrClosed = errors.New("cache is closed")

// Cache stores JSON encoded responses that never change once produced, such
// as data read at a historical block. A Cache with an empty path is disabled:
// every lookup misses and every store is dropped.
type Cache struct {
	path string
	db   *flatfs.Datastore
	mtx  *sync.Mutex
}

func New(path string) *Cache {
	return &Cache{path: path, mtx: &sync.Mutex{}}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.path != ""
}

// Init implements aggregate.Plugin.
func (c *Cache) Init() error {
	if !c.Enabled() {
		return nil
	}
	if err := os.MkdirAll(c.path, 0755); err != nil {
		return err
	}

	// uses default sharding
	fs, err := flatfs.CreateOrOpen(c.path, flatfs.NextToLast(2), false)
	if err != nil {
		return fmt.Errorf("failed to open cache [path:%s]: %w", c.path, err)
	}

	c.mtx.Lock()
	c.db = fs
	c.mtx.Unlock()
	return nil
}

// Start implements aggregate.Plugin.
func (c *Cache) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (c *Cache) Stop() error {
	if c == nil {
		return nil
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Key derives a flatfs compatible key from the given parts.
func Key(parts ...string) datastore.Key {
	h := crypto.Keccak256([]byte(strings.Join(parts, "\x00")))
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return datastore.NewKey(enc.EncodeToString(h))
}

func (c *Cache) put(ctx context.Context, key datastore.Key, value []byte) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.db == nil {
		return ErrClosed
	}
	return c.db.Put(ctx, key, value)
}

func (c *Cache) get(ctx context.Context, key datastore.Key) ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.db == nil {
		return nil, ErrClosed
	}
	return c.db.Get(ctx, key)
}

// Put stores value under key. Disabled caches ignore the call.
func Put[T any](ctx context.Context, c *Cache, key datastore.Key, value T) error {
	if !c.Enabled() {
		return nil
	}
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.put(ctx, key, buf); err != nil {
		return fmt.Errorf("failed to put key [%s]: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, or None on a miss.
func Get[T any](ctx context.Context, c *Cache, key datastore.Key) (optional.Option[T], error) {
	if !c.Enabled() {
		return optional.None[T](), nil
	}
	buf, err := c.get(ctx, key)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return optional.None[T](), nil
		}
		return optional.None[T](), fmt.Errorf("failed to get key [%s]: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(buf, &v); err != nil {
		return optional.None[T](), fmt.Errorf("failed to decode key [%s]: %w", key, err)
	}
	return optional.Some(v), nil
}
