// Command promo-ingest loads bulk promotion codes from gzip-compressed dump
// files into PostgreSQL. A code counts as genuine only when it appears in at
// least two of the dump files; the dumps are far too large to hold in memory,
// so membership is tracked with one bloom filter per file across two
// streaming passes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/promo"
	"github.com/xenking/storefront/internal/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// codeRule describes the promotion rule applied to a known ingested code.
type codeRule struct {
	kind        promo.Kind
	value       string
	minOrder    string
	maxDiscount string
	usageLimit  int
	description string
}

var codeRules = map[string]codeRule{
	"BIRTHDAY": {kind: promo.KindFixed, value: "10", description: "Birthday: 10 off"},
	"FIFTYOFF": {kind: promo.KindPercentage, value: "50", maxDiscount: "100", description: "50% off entire order"},
	"SIXTYOFF": {kind: promo.KindPercentage, value: "60", maxDiscount: "100", description: "60% off entire order"},
	"GNULINUX": {kind: promo.KindPercentage, value: "15", description: "Open source discount: 15% off"},
	"OVER9000": {kind: promo.KindFixed, value: "9", description: "9 off your order"},
	"HAPPYHRS": {kind: promo.KindPercentage, value: "18", description: "Happy Hours: 18% off"},
}

var defaultRule = codeRule{
	kind:        promo.KindPercentage,
	value:       "10",
	maxDiscount: "20",
	description: "Valid promo code: 10% off",
}

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
		validDays   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing promobaseN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&validDays, "valid-days", 365, "number of days ingested promotions stay valid")
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

	if err := run(ctx, dataDir, databaseURL, validDays); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, validDays int) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("promobase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: Build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: Find candidate codes appearing in 2+ files.
	slog.Info("pass 2: finding candidate codes")

	validCodes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writePromotions(ctx, postgres.NewPromotionRepository(pool), validCodes, validDays); err != nil {
		return errors.Wrap(err, "write promotions to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidCodes re-streams each file and checks codes against OTHER files'
// bloom filters. A code is valid if it appears in 2 or more files.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all files.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	// Keep codes appearing in 2+ files.
	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}

	return valid, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			// Check if this code appears in any OTHER file's bloom filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writePromotions upserts a promotion rule for every valid code.
func writePromotions(ctx context.Context, repo *postgres.PromotionRepository, codes []string, validDays int) error {
	slog.Info("writing promotions to database", slog.Int("count", len(codes)))

	now := time.Now().UTC()
	for i, code := range codes {
		rule, ok := codeRules[code]
		if !ok {
			rule = defaultRule
		}

		p, err := promotionFromRule(code, rule, now, validDays)
		if err != nil {
			return errors.Wrapf(err, "build promotion for code %s", code)
		}
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}

func promotionFromRule(code string, rule codeRule, now time.Time, validDays int) (*promo.Promotion, error) {
	value, err := decimal.NewFromString(rule.value)
	if err != nil {
		return nil, errors.Wrap(err, "parse value")
	}

	p := &promo.Promotion{
		ID:          "ingest-" + promo.NormalizeCode(code),
		Code:        promo.NormalizeCode(code),
		Kind:        rule.kind,
		Value:       value,
		UsageLimit:  rule.usageLimit,
		StartsAt:    now,
		EndsAt:      now.AddDate(0, 0, validDays),
		Active:      true,
		Description: rule.description,
	}
	if rule.minOrder != "" {
		if p.MinOrderValue, err = decimal.NewFromString(rule.minOrder); err != nil {
			return nil, errors.Wrap(err, "parse min order value")
		}
	}
	if rule.maxDiscount != "" {
		if p.MaxDiscount, err = decimal.NewFromString(rule.maxDiscount); err != nil {
			return nil, errors.Wrap(err, "parse max discount")
		}
	}
	return p, nil
}
