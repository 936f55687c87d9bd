// Command catalog-import merges supplier product feeds into a catalog file.
//
// Each feed is a gzip-compressed text file with one listing per line:
//
//	sku|name|category|price|image-key
//
// Supplier feeds are noisy: they carry stale listings, typos, and products
// the store never ranged. A listing is accepted only when its SKU appears in
// at least two independent feeds. Feeds are large, so membership is tested
// with per-feed bloom filters built in a first concurrent pass; a second
// pass collects the actual records for cross-confirmed SKUs.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/techgear-labs/storefront/internal/catalog"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	feedFields    = 5
)

// listing is one parsed feed line.
type listing struct {
	sku      string
	name     string
	category catalog.Category
	price    decimal.Decimal
	imageKey string
}

// fileResult holds cross-confirmed candidates found in a single feed during
// pass 2. The mask records which feeds carried the SKU.
type fileResult struct {
	candidates map[string]uint
	records    map[string]listing
}

func main() {
	var (
		output string
		feeds  multiFlag
	)

	flag.Var(&feeds, "feed", "supplier feed file (.gz), repeatable")
	flag.StringVar(&output, "o", "catalog.json", "output catalog file (.gz supported)")
	flag.Parse()

	if len(feeds) < 2 {
		slog.Error("at least two feeds are required for cross-confirmation")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feeds, output); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, feeds []string, output string) error {
	for _, f := range feeds {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check feed %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("feeds", len(feeds)))
	filters, err := buildBloomFilters(ctx, feeds)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: collecting cross-confirmed listings")
	valid, err := findValidListings(ctx, feeds, filters)
	if err != nil {
		return errors.Wrap(err, "find valid listings")
	}
	slog.Info("valid listings found", slog.Int("count", len(valid)))

	if len(valid) == 0 {
		return errors.New("no listing appears in two or more feeds")
	}

	return writeCatalog(output, valid)
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range feeds {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			if l, err := parseListing(line); err == nil {
				filter.AddString(l.sku)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("feed", idx+1),
						slog.Uint64("listings", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_listings", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidListings re-streams each feed and checks SKUs against OTHER
// feeds' bloom filters. A listing is valid if its SKU appears in 2 or more
// feeds; the record kept is the one from the lowest-numbered feed.
func findValidListings(ctx context.Context, feeds []string, filters []*bloom.BloomFilter) (map[string]listing, error) {
	results := make([]fileResult, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range feeds {
		g.Go(findCandidatesInFeed(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all feeds.
	merged := make(map[string]uint)
	for _, r := range results {
		for sku, mask := range r.candidates {
			merged[sku] |= mask
		}
	}

	// Keep listings whose SKU appears in 2+ feeds.
	valid := make(map[string]listing)
	for sku, mask := range merged {
		if bits.OnesCount(mask) < 2 {
			continue
		}
		for _, r := range results {
			if rec, ok := r.records[sku]; ok {
				valid[sku] = rec
				break
			}
		}
	}

	return valid, nil
}

func findCandidatesInFeed(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		records := make(map[string]listing)
		feedBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			l, err := parseListing(line)
			if err != nil {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("listings", count),
				)
			}

			// Mark this feed as carrying the SKU regardless, so two feeds
			// that both reach this point can confirm each other.
			candidates[l.sku] |= feedBit
			if _, ok := records[l.sku]; !ok {
				records[l.sku] = l
			}

			// Drop entries no other feed can confirm to bound memory.
			confirmed := false
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(l.sku) {
					confirmed = true
					break
				}
			}
			if !confirmed {
				delete(candidates, l.sku)
				delete(records, l.sku)
			}
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_listings", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates, records: records}
		return nil
	}
}

// parseListing validates one pipe-separated feed line.
func parseListing(line string) (listing, error) {
	parts := strings.Split(line, "|")
	if len(parts) != feedFields {
		return listing{}, errors.Errorf("expected %d fields, got %d", feedFields, len(parts))
	}

	l := listing{
		sku:      strings.TrimSpace(parts[0]),
		name:     strings.TrimSpace(parts[1]),
		category: catalog.Category(strings.TrimSpace(parts[2])),
		imageKey: strings.TrimSpace(parts[4]),
	}
	if l.sku == "" || l.name == "" || l.imageKey == "" {
		return listing{}, errors.New("empty field")
	}
	if !l.category.Valid() {
		return listing{}, errors.Errorf("unknown category %q", l.category)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
	if err != nil || !price.IsPositive() {
		return listing{}, errors.Errorf("bad price %q", parts[3])
	}
	l.price = price

	return l, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
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

// writeCatalog assigns stable IDs (SKU order), validates the merged catalog,
// and writes it in the server's catalog file format.
func writeCatalog(output string, valid map[string]listing) error {
	skus := make([]string, 0, len(valid))
	for sku := range valid {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	products := make([]catalog.Product, len(skus))
	for i, sku := range skus {
		l := valid[sku]
		products[i] = catalog.Product{
			ID:       i + 1,
			Name:     l.name,
			Category: l.category,
			Price:    l.price,
			ImageKey: l.imageKey,
		}
	}

	// Run the same validation the server applies on load, so a bad import
	// fails here instead of at startup.
	if _, err := catalog.NewStore(products); err != nil {
		return errors.Wrap(err, "validate merged catalog")
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "create %s", output)
	}
	defer func() { _ = f.Close() }()

	var w io.Writer = f

	var gz *pgzip.Writer
	if strings.HasSuffix(output, ".gz") {
		gz = pgzip.NewWriter(f)
		defer func() { _ = gz.Close() }()
		w = gz
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", output)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrapf(err, "flush %s", output)
		}
	}

	slog.Info("catalog written", slog.String("path", output), slog.Int("products", len(products)))
	return nil
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
