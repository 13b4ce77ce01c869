// Command seed-catalog loads a catalog feed (categories and products) into the
// database. Feeds are JSON, optionally gzip-compressed, so large exports from
// the merchandising tooling can be imported directly.
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
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mlevasseur/boutique-api/internal/storage/postgres"
)

type catalogFeed struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

type categoryJSON struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type productJSON struct {
	CategorySlug string          `json:"categorySlug"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Price        int64           `json:"price"`
	Images       []string        `json:"images"`
	Stock        int32           `json:"stock"`
	Rating       decimal.Decimal `json:"rating"`
	Featured     bool            `json:"featured"`
	IsNew        bool            `json:"isNew"`
}

func main() {
	var (
		databaseURL string
		feedFile    string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&feedFile, "feed-file", "db/seed/catalog.json", "path to catalog feed (.json or .json.gz)")
	flag.IntVar(&workers, "workers", 8, "concurrent product upserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, feedFile, workers); err != nil {
		slog.Error("catalog seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog seed completed successfully")
}

func run(ctx context.Context, databaseURL, feedFile string, workers int) error {
	feed, err := readFeed(feedFile)
	if err != nil {
		return errors.Wrap(err, "read feed")
	}

	slog.Info("feed loaded",
		slog.Int("categories", len(feed.Categories)),
		slog.Int("products", len(feed.Products)),
	)

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	categoryIDs, err := seedCategories(ctx, pool, feed.Categories)
	if err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, pool, categoryIDs, feed.Products, workers); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

// readFeed parses the catalog feed, transparently decompressing .gz files.
func readFeed(path string) (*catalogFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var feed catalogFeed
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	return &feed, nil
}

// seedCategories upserts categories sequentially (there are few) and returns
// the slug-to-id mapping products resolve against.
func seedCategories(ctx context.Context, pool *pgxpool.Pool, categories []categoryJSON) (map[string]int64, error) {
	ids := make(map[string]int64, len(categories))

	for _, c := range categories {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (name, slug, image)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image
			RETURNING id`,
			c.Name, c.Slug, c.Image,
		).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert category %s", c.Slug)
		}
		ids[c.Slug] = id

		slog.Info("upserted category", slog.String("slug", c.Slug))
	}

	return ids, nil
}

// seedProducts upserts products concurrently. Each product row is independent,
// so a bounded worker group keeps large feeds fast without flooding the pool.
func seedProducts(ctx context.Context, pool *pgxpool.Pool, categoryIDs map[string]int64, products []productJSON, workers int) error {
	slog.Info("upserting products", slog.Int("count", len(products)), slog.Int("workers", workers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range products {
		g.Go(upsertProduct(ctx, pool, categoryIDs, p))
	}

	return g.Wait()
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, categoryIDs map[string]int64, p productJSON) func() error {
	return func() error {
		categoryID, ok := categoryIDs[p.CategorySlug]
		if !ok {
			return errors.Errorf("product %s references unknown category %s", p.Slug, p.CategorySlug)
		}

		images, err := json.Marshal(p.Images)
		if err != nil {
			return errors.Wrapf(err, "encode images for product %s", p.Slug)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (category_id, name, slug, description, price, images, stock, rating, featured, is_new)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (slug) DO UPDATE SET
				category_id = EXCLUDED.category_id,
				name        = EXCLUDED.name,
				description = EXCLUDED.description,
				price       = EXCLUDED.price,
				images      = EXCLUDED.images,
				stock       = EXCLUDED.stock,
				rating      = EXCLUDED.rating,
				featured    = EXCLUDED.featured,
				is_new      = EXCLUDED.is_new`,
			categoryID, p.Name, p.Slug, p.Description, p.Price, string(images),
			p.Stock, p.Rating, p.Featured, p.IsNew,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}

		slog.Info("upserted product", slog.String("slug", p.Slug))
		return nil
	}
}
