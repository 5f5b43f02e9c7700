// Package replay drives one end-to-end pass over a binary capture file:
// decode, reconstruct book and ledger, derive the VWAP series, export CSV
// artifacts and persist the results.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/itchpulse/internal/book"
	"github.com/guttosm/itchpulse/internal/domain/models"
	"github.com/guttosm/itchpulse/internal/export"
	"github.com/guttosm/itchpulse/internal/itch"
	"github.com/guttosm/itchpulse/internal/logger"
	"github.com/guttosm/itchpulse/internal/storage"
	"github.com/guttosm/itchpulse/internal/vwap"
)

const (
	defaultBatchSize = 5000

	// How many frames to decode between context cancellation checks.
	ctxCheckInterval = 4096
)

// Options configures one replay pass.
type Options struct {
	Sides     book.SideFilter // which order sides to track
	OutputDir string          // CSV export directory; empty disables export
	BatchSize int             // rows per insert batch; 0 uses defaultBatchSize
	Force     bool            // reprocess even if the file was already replayed
}

// Result summarizes one replay pass.
type Result struct {
	File       string
	Frames     uint64
	Trades     int
	OpenOrders int
	Samples    int
	Stats      book.Stats
	Skipped    bool
}

// ProcessFile replays one capture file.
//
// Behavior:
//   - Skips files already recorded in the replay log, unless opts.Force.
//   - Decodes frames sequentially; the book and ledger are order sensitive.
//   - Derives the cumulative VWAP series after the stream is exhausted.
//   - Writes CSV artifacts and persists trades, open orders and samples
//     concurrently, in batches.
func ProcessFile(ctx context.Context, path string, repo storage.ReplayRepository, opts Options) (*Result, error) {
	start := time.Now()
	base := filepath.Base(path)
	log := logger.Component("replay")

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	exists, err := repo.HasReplayForFile(base)
	if err != nil {
		return nil, fmt.Errorf("file %s: check replay log: %w", base, err)
	}
	if exists && !opts.Force {
		log.Info().Str("file", base).Bool("skipped", true).Msg("already replayed")
		return &Result{File: base, Skipped: true}, nil
	}
	if exists && opts.Force {
		if err := repo.DeleteReplayByFile(base); err != nil {
			return nil, fmt.Errorf("file %s: delete existing: %w", base, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer func() { _ = f.Close() }()

	log.Info().Str("file", base).Msg("replay start")

	disp := book.NewDispatcher(opts.Sides)
	dec := itch.NewDecoder(f)
	for {
		if dec.Frames()%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("file %s: frame %d: %w", base, dec.Frames(), err)
		}
		if ev == nil {
			continue // administrative frame
		}
		disp.Apply(ev)
	}

	samples := vwap.Series(disp.Ledger())

	if opts.OutputDir != "" {
		if err := exportCSVs(opts.OutputDir, disp, samples); err != nil {
			return nil, fmt.Errorf("file %s: %w", base, err)
		}
	}

	trades := collectTrades(disp, base)
	orders := collectOpenOrders(disp, base)
	persisted := collectSamples(disp, samples, base)

	if err := persist(ctx, repo, opts.BatchSize, trades, orders, persisted); err != nil {
		return nil, fmt.Errorf("file %s: persist: %w", base, err)
	}

	if err := repo.UpsertReplayLog(base, dec.Frames(), len(trades), len(persisted)); err != nil {
		return nil, fmt.Errorf("file %s: upsert replay log: %w", base, err)
	}

	res := &Result{
		File:       base,
		Frames:     dec.Frames(),
		Trades:     len(trades),
		OpenOrders: len(orders),
		Samples:    len(persisted),
		Stats:      disp.Stats(),
	}

	log.Info().
		Str("file", base).
		Uint64("frames", res.Frames).
		Int("trades", res.Trades).
		Int("open_orders", res.OpenOrders).
		Int("samples", res.Samples).
		Uint64("over_executions", res.Stats.OverExecutions).
		Uint64("duplicate_matches", res.Stats.DuplicateMatches).
		Dur("elapsed", time.Since(start)).
		Msg("replay done")

	return res, nil
}

// exportCSVs writes the three diagnostic artifacts concurrently. The inputs
// are read-only at this point so the writers share no state.
func exportCSVs(dir string, disp *book.Dispatcher, samples []vwap.Sample) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return export.WriteVWAP(filepath.Join(dir, "vwap.csv"), disp.Directory(), samples)
	})
	g.Go(func() error {
		return export.WriteTrades(filepath.Join(dir, "trades.csv"), disp.Directory(), disp.Ledger())
	})
	g.Go(func() error {
		return export.WriteOpenOrders(filepath.Join(dir, "open_orders.csv"), disp.Directory(), disp.Book())
	})
	return g.Wait()
}

func symbolOr(dir book.Directory, sec itch.SecurityID) string {
	if s, ok := dir.Resolve(sec); ok {
		return strings.ToUpper(s)
	}
	return export.UnknownSymbol
}

func collectTrades(disp *book.Dispatcher, source string) []models.Trade {
	dir := disp.Directory()
	var out []models.Trade
	for sec, trades := range disp.Ledger() {
		name := symbolOr(dir, sec)
		for match, tr := range trades {
			out = append(out, models.Trade{
				Symbol:      name,
				SecurityID:  uint16(sec),
				MatchNumber: uint64(match),
				Timestamp:   tr.Timestamp,
				Quantity:    tr.Shares,
				Price:       tr.Price,
				SourceFile:  source,
			})
		}
	}
	return out
}

func collectOpenOrders(disp *book.Dispatcher, source string) []models.OpenOrder {
	dir := disp.Directory()
	var out []models.OpenOrder
	for sec, orders := range disp.Book() {
		name := symbolOr(dir, sec)
		for ref, o := range orders {
			out = append(out, models.OpenOrder{
				Symbol:     name,
				SecurityID: uint16(sec),
				OrderRef:   uint64(ref),
				Timestamp:  o.Timestamp,
				Quantity:   uint64(o.Shares),
				Price:      o.Price,
				SourceFile: source,
			})
		}
	}
	return out
}

func collectSamples(disp *book.Dispatcher, samples []vwap.Sample, source string) []models.VWAPSample {
	dir := disp.Directory()
	out := make([]models.VWAPSample, 0, len(samples))
	for _, s := range samples {
		out = append(out, models.VWAPSample{
			Symbol:     symbolOr(dir, s.Security),
			SecurityID: uint16(s.Security),
			HourBucket: int(s.Bucket),
			VWAP:       s.VWAP,
			SourceFile: source,
		})
	}
	return out
}

// persist writes the three result sets concurrently, each in batches. The
// first failing batch cancels the siblings.
func persist(ctx context.Context, repo storage.ReplayRepository, batchSize int, trades []models.Trade, orders []models.OpenOrder, samples []models.VWAPSample) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return inBatches(gctx, len(trades), batchSize, func(lo, hi int) error {
			return repo.InsertTradesBatch(trades[lo:hi])
		})
	})
	g.Go(func() error {
		return inBatches(gctx, len(orders), batchSize, func(lo, hi int) error {
			return repo.InsertOpenOrdersBatch(orders[lo:hi])
		})
	})
	g.Go(func() error {
		return inBatches(gctx, len(samples), batchSize, func(lo, hi int) error {
			return repo.InsertVWAPBatch(samples[lo:hi])
		})
	})

	return g.Wait()
}

func inBatches(ctx context.Context, n, size int, insert func(lo, hi int) error) error {
	for lo := 0; lo < n; lo += size {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		hi := lo + size
		if hi > n {
			hi = n
		}
		if err := insert(lo, hi); err != nil {
			return err
		}
	}
	return nil
}
