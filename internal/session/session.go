// Package session keeps one in-memory cart per signed-in customer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering/internal/domain/cart"
)

type entry struct {
	cart     *cart.Store
	lastSeen time.Time
	// refs counts callers between Acquire and release.
	refs int
}

// Registry maps user ids to their cart. Carts are created on first use
// and live until sign-out or until they sit idle for longer than the
// configured timeout.
type Registry struct {
	idle time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates a Registry. A zero idle timeout disables eviction.
func NewRegistry(idle time.Duration) *Registry {
	return &Registry{
		idle:    idle,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Cart returns the cart of userID, creating an empty one if needed.
// Callers that mutate the cart should use Acquire instead.
func (r *Registry) Cart(userID string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entryLocked(userID).cart
}

// Acquire returns the cart of userID and pins it until release is called.
// A pinned cart is never evicted for idleness.
func (r *Registry) Acquire(userID string) (c *cart.Store, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entryLocked(userID)
	e.refs++

	var once sync.Once
	return e.cart, func() {
		once.Do(func() {
			r.mu.Lock()
			e.refs--
			e.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
}

func (r *Registry) entryLocked(userID string) *entry {
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{cart: cart.New()}
		r.entries[userID] = e
	}
	e.lastSeen = r.now()
	return e
}

// Drop discards the cart of userID.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// Len reports the number of live carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// evict removes unpinned carts not touched since now-idle and returns how
// many were removed.
func (r *Registry) evict(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, e := range r.entries {
		if e.refs == 0 && now.Sub(e.lastSeen) >= r.idle {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// StartCleanup launches a goroutine that evicts idle carts every half
// idle period. It stops when ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context) {
	if r.idle <= 0 {
		return
	}
	lg := zctx.From(ctx)
	go func() {
		ticker := time.NewTicker(r.idle / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := r.evict(now); n > 0 {
					lg.Debug("Evicted idle carts", zap.Int("count", n))
				}
			}
		}
	}()
}
