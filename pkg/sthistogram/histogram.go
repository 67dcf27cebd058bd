// Copyright 2024 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package sthistogram

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// Bucket is one element of a Histogram. It covers the half-open range
// [Lo, Hi) in projection space and carries a frequency estimate. The range
// of a single bucket lies entirely within one type class (spec §3).
type Bucket struct {
	Lo, Hi Projection
	Freq   float64
}

func (b Bucket) width() float64 {
	return b.Hi.Sub(b.Lo)
}

// contains reports whether v falls in [b.Lo, b.Hi).
func (b Bucket) contains(v Projection) bool {
	return !v.Less(b.Lo) && v.Less(b.Hi)
}

// Histogram is a fixed-size ordered array of buckets covering a contiguous
// value range, self-tuned from query feedback rather than data scans (spec
// §1-§4.2). It is not internally synchronized (spec §5); callers must
// serialize access to a single Histogram themselves.
type Histogram struct {
	cfg       Config
	buckets   []Bucket
	totalFreq float64
	nObs      int64

	// restructureCount counts completed restructure() calls. Tests use it
	// to pin down which Update call number first triggers a restructure,
	// rather than inferring it indirectly from bucket state.
	restructureCount int64
}

// NewHistogram constructs a Histogram with cfg.InitialSize equal-magnitude
// buckets covering [cfg.InitialLow, cfg.InitialHigh), every bucket seeded
// with cfg.InitialBinValue (spec §4.2.1). It returns an error if cfg is
// degenerate: InitialSize < 1 or InitialLow >= InitialHigh (spec §7).
func NewHistogram(cfg Config) (*Histogram, error) {
	if cfg.InitialSize < 1 {
		return nil, errors.AssertionFailedf(
			"histogram requires InitialSize >= 1, got %d", cfg.InitialSize)
	}
	if cfg.InitialLow >= cfg.InitialHigh {
		return nil, errors.AssertionFailedf(
			"histogram requires InitialLow < InitialHigh, got [%g, %g)",
			cfg.InitialLow, cfg.InitialHigh)
	}
	if cfg.InitialBinValue < 0 {
		return nil, errors.AssertionFailedf(
			"histogram requires InitialBinValue >= 0, got %g", cfg.InitialBinValue)
	}

	n := cfg.InitialSize
	span := cfg.InitialHigh - cfg.InitialLow
	width := span / float64(n)

	buckets := make([]Bucket, n)
	lo := cfg.InitialLow
	for i := 0; i < n; i++ {
		hi := cfg.InitialLow + width*float64(i+1)
		if i == n-1 {
			// Avoid floating-point drift leaving a gap before InitialHigh.
			hi = cfg.InitialHigh
		}
		buckets[i] = Bucket{Lo: Numeric(lo), Hi: Numeric(hi), Freq: cfg.InitialBinValue}
		lo = hi
	}

	return &Histogram{
		cfg:       cfg,
		buckets:   buckets,
		totalFreq: cfg.InitialBinValue * float64(n),
	}, nil
}

// BucketCount returns the number of buckets in the histogram.
func (h *Histogram) BucketCount() int {
	return len(h.buckets)
}

// TotalFreq returns the cached sum of all bucket frequencies (spec I4).
// It may drift from the true sum by accumulated floating-point error until
// the next restructure recomputes it exactly (spec §7).
func (h *Histogram) TotalFreq() float64 {
	return h.totalFreq
}

// NObs returns the number of Update calls this histogram has received
// since construction (spec I5).
func (h *Histogram) NObs() int64 {
	return h.nObs
}

// Snapshot returns a defensive copy of the bucket array, for callers (such
// as tests) that need to read histogram state without holding on to the
// mutable array. The copy is not synchronized with Update.
func (h *Histogram) Snapshot() []Bucket {
	out := make([]Bucket, len(h.buckets))
	copy(out, h.buckets)
	return out
}

// locate returns the index of the unique bucket with Lo <= v < Hi, or
// (-1, false) if v falls outside the histogram's coverage. It runs in
// O(log B) via binary search over the ordered, contiguous bucket array
// (spec §4.2.4).
func (h *Histogram) locate(v Projection) (int, bool) {
	n := len(h.buckets)
	if n == 0 {
		return -1, false
	}
	// sort.Search finds the first bucket whose Hi is strictly greater than
	// v; since buckets are contiguous and ordered, that bucket is the only
	// candidate that could contain v.
	i := sort.Search(n, func(i int) bool {
		return v.Less(h.buckets[i].Hi)
	})
	if i == n || !h.buckets[i].contains(v) {
		return -1, false
	}
	return i, true
}

// GetFreqOnRange returns the estimated number of rows in [lo, hi). It
// returns 0 if hi <= lo (spec §4.2.2).
func (h *Histogram) GetFreqOnRange(lo, hi Projection) float64 {
	est, _ := h.estimateTouched(lo, hi)
	return est
}

// touchedBucket records, for one bucket crossed while scanning a query
// range, the intersection fraction used both by GetFreqOnRange and by the
// first phase of Update.
type touchedBucket struct {
	idx  int
	frac float64
}

// estimateTouched performs the scan described in spec §4.2.2/§4.2.3 Phase
// A: starting from the first bucket containing lo, accumulate
// frac_i * freq_i for each bucket until a non-finite width or a zero
// fraction is seen. It returns the accumulated estimate and the list of
// buckets with a strictly positive fraction (the "touched" set Phase B
// distributes error across).
func (h *Histogram) estimateTouched(lo, hi Projection) (float64, []touchedBucket) {
	if hi.Compare(lo) <= 0 {
		return 0, nil
	}

	startIdx, ok := h.locate(lo)
	if !ok {
		return 0, nil
	}

	var est float64
	var touched []touchedBucket
	for i := startIdx; i < len(h.buckets); i++ {
		b := h.buckets[i]

		w := min(hi, b.Hi).Sub(max(lo, b.Lo))
		if math.IsInf(w, 0) {
			break
		}

		denom := b.width()
		var frac float64
		if denom > 0 {
			frac = w / denom
		}
		if frac < 0 {
			frac = 0
		}

		if frac == 0 {
			break
		}

		est += frac * b.Freq
		touched = append(touched, touchedBucket{idx: i, frac: frac})
	}
	return est, touched
}

func min(a, b Projection) Projection {
	if a.Less(b) {
		return a
	}
	return b
}

func max(a, b Projection) Projection {
	if a.Less(b) {
		return b
	}
	return a
}

// Update folds one observation -- a query that scanned [lo, hi) and
// returned observed rows -- back into the histogram (spec §4.2.3).
//
// Every MergeInterval-th update first triggers a restructure, *before* the
// triggering observation itself is incorporated (spec §9: this ordering is
// intentional and preserved as specified). The trigger fires on the
// MergeInterval-th call (nObs == MergeInterval, 2*MergeInterval, ...), not
// the (MergeInterval-1)-th -- spec §8 Scenario 5 is explicit that "after
// 199 trivial updates ... the 200th update first invokes restructure()".
func (h *Histogram) Update(ctx context.Context, lo, hi Projection, observed float64) {
	h.nObs++
	if h.cfg.MergeInterval > 0 && h.nObs%int64(h.cfg.MergeInterval) == 0 {
		h.restructure(ctx)
	}

	if _, ok := h.locate(lo); !ok {
		// Out-of-coverage update: silently ignored (spec §7).
		return
	}

	est, touched := h.estimateTouched(lo, hi)
	if est == 0 || len(touched) == 0 {
		// Division by zero in the error-distribution formula: skip Phase B
		// entirely, frequencies are unchanged (spec §4.2.3 step 5, §7).
		return
	}

	err := observed - est
	alpha := h.cfg.Alpha
	for _, t := range touched {
		b := &h.buckets[t.idx]
		delta := alpha * t.frac * err * (b.Freq / est)
		newFreq := b.Freq + delta
		if newFreq < 0 {
			newFreq = 0 // clamp (spec §7)
		}
		h.totalFreq += newFreq - b.Freq
		b.Freq = newFreq
	}
}

// WriteCSV writes the histogram as CSV lines "lo,hi,freq\n", one per
// bucket in index order. This is the only persistence/debug surface the
// core exposes, used only for logging (spec §6).
func (h *Histogram) WriteCSV(w io.Writer) error {
	for _, b := range h.buckets {
		if _, err := fmt.Fprintf(w, "%g,%g,%g\n", b.Lo.Magnitude, b.Hi.Magnitude, b.Freq); err != nil {
			return err
		}
	}
	return nil
}
