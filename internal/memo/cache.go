package memo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrResultType is returned when a cached value does not have the result
// type the caller expects.
var ErrResultType = errors.New("cached result has unexpected type")

// key identifies one cached call. The result type is part of the key, so
// wrappers sharing a name but returning different types never collide.
type key struct {
	name   string
	result reflect.Type
	arg    any
}

// Stats are cache counters.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache records the results of wrapped function calls.
// The zero value is not usable; create caches with New.
type Cache struct {
	mu      sync.Mutex
	entries map[key]any
	hits    int
	misses  int

	group singleflight.Group
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[key]any),
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[key]any)
	c.hits = 0
	c.misses = 0
}

// lookup returns the cached value for k and counts a hit when present.
func (c *Cache) lookup(k key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[k]
	if ok {
		c.hits++
	}
	return v, ok
}

// store records v under k and counts a miss.
func (c *Cache) store(k key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = v
	c.misses++
}

// do returns the cached value for k or runs fn once to produce it.
// Errors are returned to every waiting caller but never cached.
func (c *Cache) do(k key, fn func() (any, error)) (any, error) {
	if v, ok := c.lookup(k); ok {
		return v, nil
	}

	flightKey := fmt.Sprintf("%s\x00%v\x00%#v", k.name, k.result, k.arg)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// A caller that lost the race to an earlier flight finds the
		// value here instead of running fn again.
		if v, ok := c.lookup(k); ok {
			return v, nil
		}

		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.store(k, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Func is a function that can be memoized: one comparable argument, one
// result, context aware.
type Func[A comparable, R any] func(ctx context.Context, arg A) (R, error)

// Wrap returns fn memoized in c under name.
// Calls with an argument equal to an earlier successful call return the
// recorded result without invoking fn.
func Wrap[A comparable, R any](c *Cache, name string, fn Func[A, R]) Func[A, R] {
	return func(ctx context.Context, arg A) (R, error) {
		var zero R
		k := key{name: name, result: reflect.TypeFor[R](), arg: arg}
		v, err := c.do(k, func() (any, error) {
			return fn(ctx, arg)
		})
		if err != nil {
			return zero, err
		}
		r, ok := v.(R)
		if !ok {
			return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, name, v)
		}
		return r, nil
	}
}

// Wrap0 is Wrap for functions without arguments.
func Wrap0[R any](c *Cache, name string, fn func(ctx context.Context) (R, error)) func(ctx context.Context) (R, error) {
	wrapped := Wrap(c, name, func(ctx context.Context, _ struct{}) (R, error) {
		return fn(ctx)
	})
	return func(ctx context.Context) (R, error) {
		return wrapped(ctx, struct{}{})
	}
}
