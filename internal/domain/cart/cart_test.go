package cart

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizza() Item {
	return Item{ID: "1", Name: "Margherita Pizza", Price: decimal.NewFromInt(299), Image: "pizza.jpg"}
}

func burger() Item {
	return Item{ID: "2", Name: "Gourmet Chicken Burger", Price: decimal.NewFromInt(249), Image: "burger.jpg"}
}

func assertTotals(t *testing.T, s *Store, wantItems int, wantPrice string) {
	t.Helper()
	assert.Equal(t, wantItems, s.TotalItems())
	assert.True(t, decimal.RequireFromString(wantPrice).Equal(s.TotalPrice()),
		"total price: want %s, got %s", wantPrice, s.TotalPrice())
}

func TestStore_AddUpdateScenario(t *testing.T) {
	s := New()
	assertTotals(t, s, 0, "0")

	s.AddItem(pizza(), 1)
	assertTotals(t, s, 1, "299")

	s.AddItem(pizza(), 1)
	assertTotals(t, s, 2, "598")
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 2, s.Items()[0].Quantity)

	s.UpdateQuantity("1", 0)
	assert.True(t, s.IsEmpty())
	assertTotals(t, s, 0, "0")
}

func TestStore_AddItem(t *testing.T) {
	tests := []struct {
		name      string
		item      Item
		quantity  int
		wantItems int
	}{
		{name: "positive quantity", item: pizza(), quantity: 3, wantItems: 3},
		{name: "zero quantity ignored", item: pizza(), quantity: 0, wantItems: 0},
		{name: "negative quantity ignored", item: pizza(), quantity: -2, wantItems: 0},
		{name: "empty id ignored", item: Item{Price: decimal.NewFromInt(10)}, quantity: 1, wantItems: 0},
		{
			name:      "negative price ignored",
			item:      Item{ID: "x", Price: decimal.NewFromInt(-1)},
			quantity:  1,
			wantItems: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.AddItem(tt.item, tt.quantity)
			assert.Equal(t, tt.wantItems, s.TotalItems())
		})
	}
}

func TestStore_AddItemKeepsFirstPrice(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 1)

	repriced := pizza()
	repriced.Price = decimal.NewFromInt(1)
	s.AddItem(repriced, 1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(299).Equal(items[0].UnitPrice))
	assertTotals(t, s, 2, "598")
}

func TestStore_InsertionOrder(t *testing.T) {
	s := New()
	s.AddItem(burger(), 1)
	s.AddItem(pizza(), 1)
	s.AddItem(burger(), 1)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
}

func TestStore_UpdateQuantity(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 1)
	s.AddItem(burger(), 2)

	s.UpdateQuantity("1", 4)
	assertTotals(t, s, 6, "1694")

	// Same value twice leaves the same state.
	s.UpdateQuantity("1", 4)
	assertTotals(t, s, 6, "1694")

	// Unknown id is a no-op.
	s.UpdateQuantity("missing", 7)
	assertTotals(t, s, 6, "1694")

	s.UpdateQuantity("2", -1)
	assertTotals(t, s, 4, "1196")
	require.Len(t, s.Items(), 1)
}

func TestStore_RemoveEquivalentToZeroQuantity(t *testing.T) {
	a, b := New(), New()
	for _, s := range []*Store{a, b} {
		s.AddItem(pizza(), 2)
		s.AddItem(burger(), 1)
	}

	a.UpdateQuantity("1", 0)
	b.RemoveItem("1")

	assert.Equal(t, a.Items(), b.Items())
	assert.Equal(t, a.TotalItems(), b.TotalItems())
	assert.True(t, a.TotalPrice().Equal(b.TotalPrice()))
}

func TestStore_RemoveItemIdempotent(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 1)
	s.AddItem(burger(), 1)

	s.RemoveItem("2")
	once := s.Items()
	s.RemoveItem("2")

	assert.Equal(t, once, s.Items())
	assertTotals(t, s, 1, "299")
}

func TestStore_Clear(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 5)
	s.AddItem(burger(), 3)

	s.Clear()
	assertTotals(t, s, 0, "0")

	s.Clear()
	assertTotals(t, s, 0, "0")
	assert.Empty(t, s.Items())
}

func TestStore_ItemsIsSnapshot(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 1)

	items := s.Items()
	items[0].Quantity = 100

	assert.Equal(t, 1, s.TotalItems())
}

func TestStore_DecimalPricesSumExactly(t *testing.T) {
	s := New()
	for i := range 1000 {
		s.AddItem(Item{ID: strconv.Itoa(i), Price: decimal.RequireFromString("0.10")}, 1)
	}
	assertTotals(t, s, 1000, "100")
}

func TestStore_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	prices := map[string]decimal.Decimal{
		"a": decimal.RequireFromString("2.99"),
		"b": decimal.RequireFromString("49"),
		"c": decimal.RequireFromString("0.01"),
	}
	ids := []string{"a", "b", "c"}

	s := New()
	for range 500 {
		id := ids[rng.IntN(len(ids))]
		switch rng.IntN(4) {
		case 0:
			s.AddItem(Item{ID: id, Price: prices[id]}, rng.IntN(5)-1)
		case 1:
			s.UpdateQuantity(id, rng.IntN(6)-2)
		case 2:
			s.RemoveItem(id)
		case 3:
			if rng.IntN(10) == 0 {
				s.Clear()
			}
		}

		items := s.Items()
		seen := make(map[string]bool, len(items))
		wantCount := 0
		wantPrice := decimal.Zero
		for _, l := range items {
			require.False(t, seen[l.ID], "duplicate line for %s", l.ID)
			seen[l.ID] = true
			require.GreaterOrEqual(t, l.Quantity, 1)
			wantCount += l.Quantity
			wantPrice = wantPrice.Add(prices[l.ID].Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		require.Equal(t, wantCount, s.TotalItems())
		require.True(t, wantPrice.Equal(s.TotalPrice()))
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := New()

	var calls int
	var last []LineItem
	unsubscribe := s.Subscribe(func(items []LineItem) {
		calls++
		last = items
	})

	s.AddItem(pizza(), 1)
	require.Equal(t, 1, calls)
	require.Len(t, last, 1)

	// No-op mutations do not notify.
	s.RemoveItem("missing")
	s.UpdateQuantity("1", 1)
	s.AddItem(pizza(), 0)
	assert.Equal(t, 1, calls)

	s.Clear()
	assert.Equal(t, 2, calls)
	assert.Empty(t, last)

	unsubscribe()
	s.AddItem(burger(), 1)
	assert.Equal(t, 2, calls)
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := New()
	var seen int
	s.Subscribe(func(_ []LineItem) {
		seen = s.TotalItems()
	})

	s.AddItem(pizza(), 3)
	assert.Equal(t, 3, seen)
}

func TestStore_QuantityCap(t *testing.T) {
	s := New()

	s.AddItem(pizza(), math.MaxInt)
	assert.True(t, s.IsEmpty())

	s.AddItem(pizza(), MaxQuantity)
	s.AddItem(pizza(), 1)
	assertTotals(t, s, MaxQuantity, "29601")

	s.UpdateQuantity("1", 1)
	s.UpdateQuantity("1", math.MaxInt)
	s.AddItem(pizza(), math.MaxInt)
	assertTotals(t, s, 1, "299")

	s.AddItem(pizza(), MaxQuantity-1)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, MaxQuantity, s.Items()[0].Quantity)
	assert.Positive(t, s.TotalPrice().Sign())
}

func TestStore_Deduct(t *testing.T) {
	s := New()
	s.AddItem(pizza(), 2)
	s.AddItem(burger(), 1)
	submitted := s.Items()

	// Changes made after the snapshot survive the deduction.
	s.AddItem(pizza(), 3)
	s.AddItem(Item{ID: "9", Name: "Masala Dosa", Price: decimal.NewFromInt(120)}, 1)

	var notified int
	s.Subscribe(func([]LineItem) { notified++ })
	s.Deduct(submitted)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "9", items[1].ID)
	assert.Equal(t, 1, notified)

	s.Deduct([]LineItem{{ID: "missing", Quantity: 1}})
	assert.Equal(t, 1, notified)
}

func TestStore_Reserve(t *testing.T) {
	s := New()

	release, err := s.Reserve(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Reserve(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := s.Reserve(t.Context())
	require.NoError(t, err)
	again()
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	var seen sync.Map
	s.Subscribe(func(items []LineItem) {
		for _, l := range items {
			seen.Store(l.ID, true)
		}
	})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := strconv.Itoa(i % 2)
			for range 50 {
				s.AddItem(Item{ID: id, Price: decimal.NewFromInt(10)}, 1)
				s.UpdateQuantity(id, 2)
				_ = s.TotalItems()
				_ = s.TotalPrice()
				_ = s.Items()
			}
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 2)
	// Every goroutine ends on UpdateQuantity(id, 2).
	for _, l := range items {
		assert.Equal(t, 2, l.Quantity)
	}
	_, ok := seen.Load("0")
	assert.True(t, ok)
}
