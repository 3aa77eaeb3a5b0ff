package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/food-ordering/internal/domain/menu"
)

const (
	listMenuSQL = `SELECT id, name, description, price, image, category, rating, cook_time
		FROM menu_items ORDER BY position, id`

	upsertMenuItemSQL = `INSERT INTO menu_items
		(id, name, description, price, image, category, rating, cook_time, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			category = EXCLUDED.category,
			rating = EXCLUDED.rating,
			cook_time = EXCLUDED.cook_time,
			position = EXCLUDED.position`
)

var _ menu.Source = (*MenuRepository)(nil)

// MenuRepository serves the menu from the menu_items table.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns every menu item in display order.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, errors.Wrap(err, "scan menu")
	}
	return items, nil
}

// Upsert inserts or replaces items in one batch. Display order follows the
// order of items.
func (r *MenuRepository) Upsert(ctx context.Context, items []menu.Item) error {
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(upsertMenuItemSQL,
			it.ID, it.Name, it.Description, it.Price, it.Image,
			it.Category, it.Rating, it.CookTime, i,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert menu")
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Price,
		&it.Image, &it.Category, &it.Rating, &it.CookTime,
	)
	return it, err
}
