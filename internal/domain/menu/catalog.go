package menu

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog serves the menu from a Source, substituting a static fallback list
// when the source fails or is empty so the menu is never blank.
type Catalog struct {
	source   Source
	fallback []Item
}

// NewCatalog returns a Catalog over source. A nil fallback selects
// DefaultItems.
func NewCatalog(source Source, fallback []Item) *Catalog {
	if fallback == nil {
		fallback = DefaultItems()
	}
	return &Catalog{source: source, fallback: fallback}
}

// List returns the full menu.
func (c *Catalog) List(ctx context.Context) []Item {
	if c.source == nil {
		return c.fallbackCopy()
	}

	items, err := c.source.List(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Menu source failed, serving fallback menu", zap.Error(err))
		return c.fallbackCopy()
	}
	if len(items) == 0 {
		zctx.From(ctx).Debug("Menu source is empty, serving fallback menu")
		return c.fallbackCopy()
	}
	return items
}

// Get returns the menu item with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (*Item, error) {
	for _, it := range c.List(ctx) {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, ErrNotFound
}

func (c *Catalog) fallbackCopy() []Item {
	out := make([]Item, len(c.fallback))
	copy(out, c.fallback)
	return out
}

// DefaultItems is the built-in menu served when no source is available.
func DefaultItems() []Item {
	return []Item{
		{
			ID: "1", Name: "Margherita Pizza",
			Description: "Classic pizza with fresh tomatoes, mozzarella, and basil on a crispy thin crust",
			Price:       decimal.NewFromInt(299),
			Image:       "https://images.pexels.com/photos/315755/pexels-photo-315755.jpeg",
			Category:    "Pizza", Rating: 4.8, CookTime: "15-20 min",
		},
		{
			ID: "2", Name: "Gourmet Chicken Burger",
			Description: "Grilled chicken breast with avocado, lettuce, tomato, and chipotle mayo",
			Price:       decimal.NewFromInt(249),
			Image:       "https://images.pexels.com/photos/552056/pexels-photo-552056.jpeg",
			Category:    "Burgers", Rating: 4.6, CookTime: "12-15 min",
		},
		{
			ID: "3", Name: "Caesar Salad Supreme",
			Description: "Fresh romaine lettuce with parmesan cheese, croutons, and house-made dressing",
			Price:       decimal.NewFromInt(199),
			Image:       "https://images.pexels.com/photos/1213710/pexels-photo-1213710.jpeg",
			Category:    "Salads", Rating: 4.4, CookTime: "5-8 min",
		},
		{
			ID: "4", Name: "Spaghetti Carbonara",
			Description: "Creamy pasta with crispy bacon, farm-fresh eggs, and aged parmesan cheese",
			Price:       decimal.NewFromInt(329),
			Image:       "https://images.pexels.com/photos/4518843/pexels-photo-4518843.jpeg",
			Category:    "Pasta", Rating: 4.9, CookTime: "18-22 min",
		},
		{
			ID: "5", Name: "Fish Tacos Deluxe",
			Description: "Grilled mahi-mahi with cabbage slaw, pico de gallo, and chipotle crema",
			Price:       decimal.NewFromInt(279),
			Image:       "https://images.pexels.com/photos/2092507/pexels-photo-2092507.jpeg",
			Category:    "Mexican", Rating: 4.7, CookTime: "10-14 min",
		},
		{
			ID: "6", Name: "Chocolate Lava Cake",
			Description: "Decadent chocolate cake with molten center, served with vanilla ice cream",
			Price:       decimal.NewFromInt(149),
			Image:       "https://images.pexels.com/photos/291528/pexels-photo-291528.jpeg",
			Category:    "Desserts", Rating: 4.8, CookTime: "8-10 min",
		},
		{
			ID: "7", Name: "BBQ Pulled Pork",
			Description: "Slow-cooked pulled pork with tangy BBQ sauce on a brioche bun",
			Price:       decimal.NewFromInt(229),
			Image:       "https://images.pexels.com/photos/1633525/pexels-photo-1633525.jpeg",
			Category:    "Burgers", Rating: 4.5, CookTime: "15-18 min",
		},
		{
			ID: "8", Name: "Vegetarian Buddha Bowl",
			Description: "Quinoa, roasted vegetables, avocado, and tahini dressing in a nourishing bowl",
			Price:       decimal.NewFromInt(189),
			Image:       "https://images.pexels.com/photos/1640777/pexels-photo-1640777.jpeg",
			Category:    "Healthy", Rating: 4.3, CookTime: "12-15 min",
		},
		{
			ID: "9", Name: "Pepperoni Pizza",
			Description: "Classic pepperoni pizza with mozzarella cheese and spicy pepperoni slices",
			Price:       decimal.NewFromInt(319),
			Image:       "https://images.pexels.com/photos/2147491/pexels-photo-2147491.jpeg",
			Category:    "Pizza", Rating: 4.7, CookTime: "15-20 min",
		},
		{
			ID: "10", Name: "Grilled Salmon",
			Description: "Fresh Atlantic salmon with lemon herb butter and seasonal vegetables",
			Price:       decimal.NewFromInt(399),
			Image:       "https://images.pexels.com/photos/725991/pexels-photo-725991.jpeg",
			Category:    "Seafood", Rating: 4.9, CookTime: "20-25 min",
		},
	}
}
