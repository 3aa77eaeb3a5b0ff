// Package menu describes the catalog of dishes that can be ordered.
package menu

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// CategoryAll selects every category in a Query.
const CategoryAll = "All"

// Item is a dish available for purchase.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
	// Rating is zero when the source has no rating for the dish.
	Rating   float64
	CookTime string
}

// Source supplies the menu. It is read-only.
type Source interface {
	List(ctx context.Context) ([]Item, error)
}

// Query narrows a menu listing.
type Query struct {
	// Text is matched case-insensitively against name, description and category.
	Text string
	// Category must match exactly. Empty or CategoryAll disables the filter.
	Category string
}

// Filter returns the items matching q, preserving order.
func Filter(items []Item, q Query) []Item {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	category := q.Category
	if category == CategoryAll {
		category = ""
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if category != "" && it.Category != category {
			continue
		}
		if text != "" && !matches(it, text) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(it Item, text string) bool {
	return strings.Contains(strings.ToLower(it.Name), text) ||
		strings.Contains(strings.ToLower(it.Description), text) ||
		strings.Contains(strings.ToLower(it.Category), text)
}

// Categories returns the distinct non-empty categories of items in
// first-seen order.
func Categories(items []Item) []string {
	var out []string
	for _, it := range items {
		if it.Category == "" || slices.Contains(out, it.Category) {
			continue
		}
		out = append(out, it.Category)
	}
	return out
}
