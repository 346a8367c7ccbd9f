// Command catalog-ingest imports point-of-sale catalog exports into the
// database. Exports are gzip-compressed JSONL files, one item record per
// line, ordered newest export first on the command line. Records for an item
// already seen in an earlier (newer) file are skipped.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/menuflow/menuflow/internal/repository"
)

const (
	// Expected upper bound on distinct items across one export set.
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	decodeWorkers = 4
)

// itemRecord is one decoded feed line.
type itemRecord struct {
	params   repository.UpsertItemParams
	variants []repository.UpsertVariantParams
}

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "feeds", "directory containing *.jsonl.gz catalog exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(feedDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", feedDir)
	}
	// Export file names are timestamped, so newest sorts last. Process
	// newest first so its records win the dedupe.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	writer := repository.NewCatalogWriter(pool)

	records := make(chan itemRecord, 1024)
	g, ctx := errgroup.WithContext(ctx)

	// Decoders: concurrent within one file's worth of order, sequential
	// across files so newest-first dedupe holds.
	g.Go(func() error {
		defer close(records)
		for _, f := range files {
			slog.Info("reading feed", slog.String("file", f))
			if err := streamFeedFile(ctx, f, records); err != nil {
				return errors.Wrapf(err, "read %s", f)
			}
		}
		return nil
	})

	// Single writer owns the bloom filter and the upsert ordering.
	g.Go(func() error {
		return writeRecords(ctx, writer, records)
	})

	return g.Wait()
}

// streamFeedFile decodes each line of a gzipped JSONL file and sends the
// records downstream. Malformed lines are logged and skipped.
func streamFeedFile(ctx context.Context, path string, out chan<- itemRecord) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	lines := make(chan []byte, 256)
	g, ctx := errgroup.WithContext(ctx)

	for range decodeWorkers {
		g.Go(func() error {
			for line := range lines {
				rec, err := decodeRecord(line)
				if err != nil {
					slog.Warn("skipping malformed record", slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		select {
		case lines <- line:
		case <-ctx.Done():
			close(lines)
			_ = g.Wait()
			return ctx.Err()
		}
	}
	close(lines)

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Wrap(scanner.Err(), "scan")
}

// decodeRecord parses one feed line:
//
//	{"item_id":"…","menu_id":"…","name":"…","translations":{"en":"…"},
//	 "price":"8.50","track_inventory":true,"stock":12,"sold_out":false,
//	 "variants":[{"id":"…","name":"Large","price":"10.50"}]}
func decodeRecord(line []byte) (itemRecord, error) {
	var rec itemRecord
	d := jx.DecodeBytes(line)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "item_id":
			s, err := d.Str()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return errors.Wrap(err, "item_id")
			}
			rec.params.ID = id
		case "menu_id":
			s, err := d.Str()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return errors.Wrap(err, "menu_id")
			}
			rec.params.MenuID = id
		case "name":
			s, err := d.Str()
			if err != nil {
				return err
			}
			rec.params.Name = s
		case "translations":
			rec.params.Translations = map[string]string{}
			return d.Obj(func(d *jx.Decoder, lang string) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				rec.params.Translations[lang] = s
				return nil
			})
		case "price":
			price, err := decodePrice(d)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			rec.params.Price = price
		case "track_inventory":
			b, err := d.Bool()
			if err != nil {
				return err
			}
			rec.params.TrackInventory = b
		case "stock":
			if d.Next() == jx.Null {
				return d.Null()
			}
			n, err := d.Int32()
			if err != nil {
				return err
			}
			rec.params.StockQuantity = &n
		case "sold_out":
			b, err := d.Bool()
			if err != nil {
				return err
			}
			rec.params.SoldOut = b
		case "variants":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVariant(d)
				if err != nil {
					return err
				}
				rec.variants = append(rec.variants, v)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return itemRecord{}, err
	}

	if rec.params.ID == uuid.Nil {
		return itemRecord{}, errors.New("missing item_id")
	}
	if rec.params.MenuID == uuid.Nil {
		return itemRecord{}, errors.New("missing menu_id")
	}
	for i := range rec.variants {
		rec.variants[i].ItemID = rec.params.ID
	}
	return rec, nil
}

func decodeVariant(d *jx.Decoder) (repository.UpsertVariantParams, error) {
	var v repository.UpsertVariantParams
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := d.Str()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return errors.Wrap(err, "variant id")
			}
			v.ID = id
		case "name":
			s, err := d.Str()
			if err != nil {
				return err
			}
			v.Name = s
		case "price":
			if d.Next() == jx.Null {
				return d.Null()
			}
			price, err := decodePrice(d)
			if err != nil {
				return errors.Wrap(err, "variant price")
			}
			v.Price = &price
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return v, err
	}
	if v.ID == uuid.Nil {
		return v, errors.New("missing variant id")
	}
	return v, nil
}

// decodePrice reads a major-unit decimal string ("8.50") and converts it to
// minor units.
func decodePrice(d *jx.Decoder) (int64, error) {
	s, err := d.Str()
	if err != nil {
		return 0, err
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	minor := dec.Shift(2)
	if !minor.IsInteger() {
		return 0, errors.Errorf("sub-cent precision in %q", s)
	}
	if minor.IsNegative() {
		return 0, errors.Errorf("negative price %q", s)
	}
	return minor.IntPart(), nil
}

// writeRecords upserts records in arrival order, skipping item IDs already
// seen. The bloom filter trades a small false-positive rate (a stale skip on
// an idempotent upsert) for constant memory on large export sets.
func writeRecords(ctx context.Context, writer *repository.CatalogWriter, records <-chan itemRecord) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var written, skipped uint64
	for rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen.TestString(rec.params.ID.String()) {
			skipped++
			continue
		}
		seen.AddString(rec.params.ID.String())

		if err := writer.UpsertItem(ctx, rec.params); err != nil {
			return err
		}
		for _, v := range rec.variants {
			if err := writer.UpsertVariant(ctx, v); err != nil {
				return err
			}
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("write progress",
				slog.Uint64("written", written),
				slog.Uint64("skipped", skipped),
			)
		}
	}

	slog.Info("write complete", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
	return nil
}
