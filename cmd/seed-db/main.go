// Command seed-db loads the product catalog, a couple of starter promotions,
// and a default admin API key into PostgreSQL. It is idempotent: reruns
// update rows in place.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
	"github.com/xenking/storefront/internal/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or STORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STORE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STORE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
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

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromotions(ctx, postgres.NewPromotionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promotions")
	}
	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, in := range products {
		p := product.Product{
			ID:       in.ID,
			Name:     in.Name,
			Price:    in.Price,
			Stock:    in.Stock,
			Category: in.Category,
			Image: product.Image{
				Thumbnail: in.Image.Thumbnail,
				Mobile:    in.Image.Mobile,
				Tablet:    in.Image.Tablet,
				Desktop:   in.Image.Desktop,
			},
		}
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromotions(ctx context.Context, repo *postgres.PromotionRepository) error {
	slog.Info("seeding starter promotions")

	now := time.Now().UTC()
	promotions := []promo.Promotion{
		{
			ID:          "seed-sale10",
			Code:        "SALE10",
			Kind:        promo.KindPercentage,
			Value:       decimal.NewFromInt(10),
			MaxDiscount: decimal.NewFromInt(20),
			StartsAt:    now,
			EndsAt:      now.AddDate(1, 0, 0),
			Active:      true,
			Description: "10% off the whole order, up to 20 off",
		},
		{
			ID:            "seed-welcome5",
			Code:          "WELCOME5",
			Kind:          promo.KindFixed,
			Value:         decimal.NewFromInt(5),
			MinOrderValue: decimal.NewFromInt(25),
			UsageLimit:    1000,
			StartsAt:      now,
			EndsAt:        now.AddDate(1, 0, 0),
			Active:        true,
			Description:   "5 off your first order of 25 or more",
		},
	}

	for i := range promotions {
		p := &promotions[i]
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.Code)
		}

		slog.Info("upserted promotion", slog.String("code", p.Code), slog.String("description", p.Description))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default admin API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.Insert(ctx, &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default admin key"))

	return nil
}
