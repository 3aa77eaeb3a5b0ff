// Command seed-menu upserts menu items from JSON files into the database.
//
// Each file holds a JSON array of dishes and may be gzip-compressed
// (".gz" suffix). Files are read concurrently; display order follows the
// order of files on the command line and of items within each file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/food-ordering/internal/domain/menu"
	"github.com/xenking/food-ordering/internal/storage/postgres"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	CookTime    string          `json:"cookTime"`
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		files = []string{"db/seed/menu.json"}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	items, err := loadFiles(ctx, files)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		slog.Info("no menu items to upsert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	if err := postgres.NewMenuRepository(pool).Upsert(ctx, items); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	return nil
}

// loadFiles reads every file concurrently and concatenates the items in
// argument order. Duplicate ids across or within files are rejected.
func loadFiles(ctx context.Context, files []string) ([]menu.Item, error) {
	perFile := make([][]menu.Item, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			items, err := readFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			slog.Info("read menu file", slog.String("path", path), slog.Int("items", len(items)))
			perFile[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []menu.Item
	seen := make(map[string]string)
	for i, items := range perFile {
		for _, it := range items {
			if prev, ok := seen[it.ID]; ok {
				return nil, errors.Errorf("duplicate menu item %q in %s (first seen in %s)", it.ID, files[i], prev)
			}
			seen[it.ID] = files[i]
			all = append(all, it)
		}
	}
	return all, nil
}

func readFile(ctx context.Context, path string) ([]menu.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return decodeItems(ctx, r)
}

func decodeItems(ctx context.Context, r io.Reader) ([]menu.Item, error) {
	var raw []menuItemJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}

	items := make([]menu.Item, 0, len(raw))
	for i, m := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch {
		case strings.TrimSpace(m.ID) == "":
			return nil, errors.Errorf("item %d: id is required", i)
		case strings.TrimSpace(m.Name) == "":
			return nil, errors.Errorf("item %s: name is required", m.ID)
		case m.Price.IsNegative():
			return nil, errors.Errorf("item %s: price must not be negative", m.ID)
		}
		items = append(items, menu.Item{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price,
			Image:       m.Image,
			Category:    m.Category,
			Rating:      m.Rating,
			CookTime:    m.CookTime,
		})
	}
	return items, nil
}
