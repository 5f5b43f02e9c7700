// Package vwap derives hour-bucketed cumulative volume-weighted average
// prices from a finished trade ledger. It runs strictly after the ingestion
// pass; it never observes a live book.
package vwap

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/itchpulse/internal/book"
	"github.com/guttosm/itchpulse/internal/itch"
)

// NanosPerHour is the width of one VWAP bucket in nanoseconds.
const NanosPerHour = uint64(3_600_000_000_000)

// HourBucket is the 1-based hour-of-day bucket a trade falls into:
// ceil(timestamp / NanosPerHour).
type HourBucket uint32

// BucketOf maps a nanosecond-of-day timestamp to its hour bucket.
func BucketOf(ts uint64) HourBucket {
	return HourBucket((ts + NanosPerHour - 1) / NanosPerHour)
}

// Sample is the cumulative VWAP for one security through the end of one hour
// bucket. Cumulative means the accumulators run from the start of the ledger,
// never resetting per bucket: the emitted value is a running average sampled
// at hour boundaries.
type Sample struct {
	Security itch.SecurityID
	Bucket   HourBucket
	VWAP     float64
}

// ForSecurity computes the ordered cumulative series for one security's
// trades. Buckets with no trades produce no sample; gaps are not filled.
func ForSecurity(sec itch.SecurityID, trades map[itch.MatchNumber]book.TradeRecord) []Sample {
	if len(trades) == 0 {
		return nil
	}

	type accum struct {
		pv  float64
		vol uint64
	}
	byBucket := make(map[HourBucket]accum)
	for _, tr := range trades {
		b := BucketOf(tr.Timestamp)
		a := byBucket[b]
		a.pv += tr.Price * float64(tr.Shares)
		a.vol += tr.Shares
		byBucket[b] = a
	}

	buckets := make([]HourBucket, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	var cumPV float64
	var cumVol uint64
	out := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		cumPV += byBucket[b].pv
		cumVol += byBucket[b].vol

		v := 0.0
		if cumVol > 0 {
			v = cumPV / float64(cumVol)
		}
		out = append(out, Sample{Security: sec, Bucket: b, VWAP: v})
	}
	return out
}

// Series computes the cumulative series for every security in the ledger.
// Securities share no state, so the work fans out one goroutine per security
// bounded by CPU count. The result is ordered by security id then bucket so
// repeated runs over the same capture produce identical output.
func Series(ledger book.Ledger) []Sample {
	secs := make([]itch.SecurityID, 0, len(ledger))
	for sec := range ledger {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })

	parts := make([][]Sample, len(secs))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, sec := range secs {
		i, sec := i, sec
		g.Go(func() error {
			parts[i] = ForSecurity(sec, ledger[sec])
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	var out []Sample
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
