// Command seed-db applies migrations and loads a demo restaurant into the
// database: one published menu, its catalog items and variants, and a
// loyalty program.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/menuflow/menuflow/internal/repository"
)

type seedFile struct {
	Menu     menuJSON      `json:"menu"`
	Items    []itemJSON    `json:"items"`
	Programs []programJSON `json:"programs"`
}

type menuJSON struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	Name                 string    `json:"name"`
	Currency             string    `json:"currency"`
	EnabledOrderTypes    []string  `json:"enabled_order_types"`
	DeliveryFee          string    `json:"delivery_fee"`
	MinOrderAmount       string    `json:"min_order_amount"`
	IsPublished          bool      `json:"is_published"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	NotifyPhone          string    `json:"notify_phone"`
	RestaurantLat        *string   `json:"restaurant_lat"`
	RestaurantLng        *string   `json:"restaurant_lng"`
	DeliveryRadiusKm     *string   `json:"delivery_radius_km"`
}

type itemJSON struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Translations   map[string]string `json:"translations"`
	Price          string            `json:"price"`
	TrackInventory bool              `json:"track_inventory"`
	Stock          *int32            `json:"stock"`
	SoldOut        bool              `json:"sold_out"`
	Variants       []variantJSON     `json:"variants"`
}

type variantJSON struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price *string   `json:"price"`
}

type programJSON struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	StampsRequired int32     `json:"stamps_required"`
	Active         bool      `json:"active"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/demo.json", "path to seed JSON file")
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

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	slog.Info("reading seed file", slog.String("path", seedPath))

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	writer := repository.NewCatalogWriter(pool)

	if err := seedMenu(ctx, writer, seed.Menu); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedItems(ctx, writer, seed.Menu.ID, seed.Items); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedPrograms(ctx, writer, seed.Menu.ID, seed.Programs); err != nil {
		return errors.Wrap(err, "seed programs")
	}

	return nil
}

func seedMenu(ctx context.Context, writer *repository.CatalogWriter, m menuJSON) error {
	deliveryFee, err := minorUnits(m.DeliveryFee)
	if err != nil {
		return errors.Wrap(err, "delivery_fee")
	}
	minAmount, err := minorUnits(m.MinOrderAmount)
	if err != nil {
		return errors.Wrap(err, "min_order_amount")
	}

	if err := writer.UpsertMenu(ctx, repository.UpsertMenuParams{
		ID:                   m.ID,
		UserID:               m.UserID,
		Name:                 m.Name,
		Currency:             m.Currency,
		EnabledOrderTypes:    m.EnabledOrderTypes,
		DeliveryFee:          deliveryFee,
		MinOrderAmount:       minAmount,
		IsPublished:          m.IsPublished,
		NotificationsEnabled: m.NotificationsEnabled,
		NotifyPhone:          m.NotifyPhone,
		RestaurantLat:        m.RestaurantLat,
		RestaurantLng:        m.RestaurantLng,
		DeliveryRadiusKm:     m.DeliveryRadiusKm,
	}); err != nil {
		return err
	}

	slog.Info("upserted menu", slog.String("id", m.ID.String()), slog.String("name", m.Name))
	return nil
}

func seedItems(ctx context.Context, writer *repository.CatalogWriter, menuID uuid.UUID, items []itemJSON) error {
	slog.Info("upserting items", slog.Int("count", len(items)))

	for _, it := range items {
		price, err := minorUnits(it.Price)
		if err != nil {
			return errors.Wrapf(err, "item %s price", it.ID)
		}

		if err := writer.UpsertItem(ctx, repository.UpsertItemParams{
			ID:             it.ID,
			MenuID:         menuID,
			Name:           it.Name,
			Translations:   it.Translations,
			Price:          price,
			TrackInventory: it.TrackInventory,
			StockQuantity:  it.Stock,
			SoldOut:        it.SoldOut,
		}); err != nil {
			return err
		}

		for _, v := range it.Variants {
			var variantPrice *int64
			if v.Price != nil {
				p, err := minorUnits(*v.Price)
				if err != nil {
					return errors.Wrapf(err, "variant %s price", v.ID)
				}
				variantPrice = &p
			}
			if err := writer.UpsertVariant(ctx, repository.UpsertVariantParams{
				ID:     v.ID,
				ItemID: it.ID,
				Name:   v.Name,
				Price:  variantPrice,
			}); err != nil {
				return err
			}
		}

		slog.Info("upserted item", slog.String("id", it.ID.String()), slog.String("name", it.Name))
	}

	return nil
}

func seedPrograms(ctx context.Context, writer *repository.CatalogWriter, menuID uuid.UUID, programs []programJSON) error {
	for _, p := range programs {
		if err := writer.UpsertProgram(ctx, repository.UpsertProgramParams{
			ID:             p.ID,
			MenuID:         menuID,
			Name:           p.Name,
			StampsRequired: p.StampsRequired,
			Active:         p.Active,
		}); err != nil {
			return err
		}

		slog.Info("upserted program", slog.String("id", p.ID.String()), slog.String("name", p.Name))
	}

	return nil
}

// minorUnits converts a major-unit decimal string ("12.50") to minor units.
func minorUnits(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	minor := dec.Shift(2)
	if !minor.IsInteger() {
		return 0, errors.Errorf("sub-cent precision in %q", s)
	}
	return minor.IntPart(), nil
}
