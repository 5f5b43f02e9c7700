// Package export writes the diagnostic CSV artifacts of one replay run: the
// VWAP series, the realized trades, and the orders still open when the
// capture ended. Serialization lives here so the reconstruction engine stays
// free of formatting concerns.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/guttosm/itchpulse/internal/book"
	"github.com/guttosm/itchpulse/internal/itch"
	"github.com/guttosm/itchpulse/internal/vwap"
)

// UnknownSymbol is exported for securities that never got a directory entry;
// missing metadata must not fail the export.
const UnknownSymbol = "UNKNOWN"

func symbolOr(dir book.Directory, sec itch.SecurityID) string {
	if s, ok := dir.Resolve(sec); ok {
		return s
	}
	return UnknownSymbol
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// sortedSecurities returns the security ids of a per-security map in
// ascending order so the files come out identical across runs.
func sortedSecurities[V any](m map[itch.SecurityID]V) []itch.SecurityID {
	secs := make([]itch.SecurityID, 0, len(m))
	for sec := range m {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })
	return secs
}

// WriteVWAP writes the hourly cumulative VWAP series as name,hour,vwap rows.
// Samples are expected already ordered (vwap.Series guarantees it).
func WriteVWAP(path string, dir book.Directory, samples []vwap.Sample) error {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			symbolOr(dir, s.Security),
			strconv.FormatUint(uint64(s.Bucket), 10),
			formatPrice(s.VWAP),
		})
	}
	return writeCSV(path, []string{"name", "hour", "vwap"}, rows)
}

// WriteTrades writes the surviving trade ledger as name,ts,vol,price rows,
// ordered by security then match number.
func WriteTrades(path string, dir book.Directory, ledger book.Ledger) error {
	var rows [][]string
	for _, sec := range sortedSecurities(ledger) {
		trades := ledger[sec]
		matches := make([]itch.MatchNumber, 0, len(trades))
		for m := range trades {
			matches = append(matches, m)
		}
		sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })

		name := symbolOr(dir, sec)
		for _, m := range matches {
			tr := trades[m]
			rows = append(rows, []string{
				name,
				strconv.FormatUint(tr.Timestamp, 10),
				strconv.FormatUint(tr.Shares, 10),
				formatPrice(tr.Price),
			})
		}
	}
	return writeCSV(path, []string{"name", "ts", "vol", "price"}, rows)
}

// WriteOpenOrders writes the orders still resting on the book at end of
// stream as name,ts,vol,price rows, ordered by security then order reference.
func WriteOpenOrders(path string, dir book.Directory, b book.Book) error {
	var rows [][]string
	for _, sec := range sortedSecurities(b) {
		orders := b[sec]
		refs := make([]itch.OrderRef, 0, len(orders))
		for r := range orders {
			refs = append(refs, r)
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })

		name := symbolOr(dir, sec)
		for _, r := range refs {
			o := orders[r]
			rows = append(rows, []string{
				name,
				strconv.FormatUint(o.Timestamp, 10),
				strconv.FormatUint(uint64(o.Shares), 10),
				formatPrice(o.Price),
			})
		}
	}
	return writeCSV(path, []string{"name", "ts", "vol", "price"}, rows)
}
