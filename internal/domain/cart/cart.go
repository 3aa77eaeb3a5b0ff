// Package cart holds the session-scoped shopping cart and its derived totals.
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Item describes a menu item being added to the cart.
type Item struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// LineItem is one distinct item in the cart together with its quantity.
type LineItem struct {
	ID        string
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns UnitPrice * Quantity.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MaxQuantity is the largest quantity a single line item may hold.
const MaxQuantity = 99

// Listener receives a snapshot of the line items after every change.
type Listener func(items []LineItem)

// Store is the authoritative list of line items for one session.
//
// Invalid mutations (quantities outside 1..MaxQuantity, unknown ids) are
// ignored rather than reported. Totals are always derived from the line
// items.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	listeners map[int]Listener
	nextID    int

	// checkout holds one token; whoever takes it may submit the cart.
	checkout chan struct{}
}

// New returns an empty Store.
func New() *Store {
	s := &Store{checkout: make(chan struct{}, 1)}
	s.checkout <- struct{}{}
	return s
}

// AddItem adds quantity units of item. An item already in the cart has its
// quantity incremented and keeps its original unit price. An add that would
// take the line above MaxQuantity is ignored.
func (s *Store) AddItem(item Item, quantity int) {
	if quantity <= 0 || quantity > MaxQuantity || item.ID == "" || item.Price.IsNegative() {
		return
	}

	s.mu.Lock()
	if i := s.indexOf(item.ID); i >= 0 {
		if s.items[i].Quantity > MaxQuantity-quantity {
			s.mu.Unlock()
			return
		}
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, LineItem{
			ID:        item.ID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  quantity,
		})
	}
	s.notifyLocked()
}

// UpdateQuantity sets the quantity of the line item with the given id.
// A quantity of zero or less removes the line item; one above MaxQuantity
// is ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}
	if quantity > MaxQuantity {
		return
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.items[i].Quantity == quantity {
		s.mu.Unlock()
		return
	}
	s.items[i].Quantity = quantity
	s.notifyLocked()
}

// RemoveItem deletes the line item with the given id if present.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.notifyLocked()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	s.notifyLocked()
}

// Deduct subtracts the quantities of lines from the matching line items and
// drops those that reach zero. Lines added since the snapshot was taken, and
// units added on top of it, stay in the cart.
func (s *Store) Deduct(lines []LineItem) {
	s.mu.Lock()
	changed := false
	for _, l := range lines {
		i := s.indexOf(l.ID)
		if i < 0 || l.Quantity <= 0 {
			continue
		}
		changed = true
		if s.items[i].Quantity > l.Quantity {
			s.items[i].Quantity -= l.Quantity
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.notifyLocked()
}

// Reserve waits until no other checkout of this cart is in progress. The
// caller must call release once the order has been recorded or abandoned.
func (s *Store) Reserve(ctx context.Context) (release func(), err error) {
	select {
	case <-s.checkout:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { s.checkout <- struct{}{} })
	}, nil
}

// TotalItems returns the sum of quantities over all line items.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, l := range s.items {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the cart subtotal: the sum of UnitPrice * Quantity.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return subtotal(s.items)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// IsEmpty reports whether the cart has no line items.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items) == 0
}

// Subscribe registers fn to be called after every change to the cart.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// notifyLocked releases s.mu and then delivers a snapshot to listeners, so
// a listener may call back into the store.
func (s *Store) notifyLocked() {
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Subtotal returns the sum of line totals for the given items.
func Subtotal(items []LineItem) decimal.Decimal {
	return subtotal(items)
}

func subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range items {
		sum = sum.Add(l.Total())
	}
	return sum
}
