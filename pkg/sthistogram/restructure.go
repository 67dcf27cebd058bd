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
	"math"
	"sort"
)

// restructure reallocates bucket resolution: it merges adjacent buckets
// whose frequencies have converged and redistributes the reclaimed slots
// to split the histogram's hottest buckets (spec §4.2.5). Bucket count is
// unchanged; coverage and monotonicity (I1/I2) are preserved exactly, and
// totalFreq is recomputed from scratch (so any accumulated floating-point
// drift from prior Updates is wiped out, per spec §7).
func (h *Histogram) restructure(ctx context.Context) {
	n := len(h.buckets)
	if n == 0 {
		return
	}
	h.restructureCount++

	// Recompute the true total before thresholding against it; this is
	// also the moment accumulated float drift in totalFreq gets wiped.
	var trueTotal float64
	for _, b := range h.buckets {
		trueTotal += b.Freq
	}

	// Phase 1: seed one run per bucket.
	active := make([]*run, n)
	for i, b := range h.buckets {
		active[i] = newRunFromBucket(i, b)
	}

	// Phase 2: merge pass.
	reclaimed := mergePass(active, trueTotal, h.cfg.MergeThreshold)
	active = reclaimed.remaining

	// Phase 3: order remaining runs for splitting (unmerged first, each
	// group by totalFreq descending).
	ordered := append([]*run(nil), active...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.merged != b.merged {
			return !a.merged // unmerged ranks before merged
		}
		return a.totalFreq > b.totalFreq
	})

	// Phase 4: split pass.
	newRuns := splitPass(ordered, reclaimed.runs, n, h.cfg.SplitThreshold)

	// Phase 5: reassemble by range lower bound.
	sort.SliceStable(newRuns, func(i, j int) bool {
		return newRuns[i].lo.Less(newRuns[j].lo)
	})

	// Phase 6: writeback.
	newBuckets := make([]Bucket, len(newRuns))
	var newTotal float64
	for i, r := range newRuns {
		newBuckets[i] = Bucket{Lo: r.lo, Hi: r.hi, Freq: r.totalFreq}
		newTotal += r.totalFreq
	}
	h.buckets = newBuckets
	h.totalFreq = newTotal

	logInfof(ctx, "restructured histogram: %d buckets, %d merged, total freq %g",
		len(newBuckets), len(reclaimed.runs), newTotal)
}

type mergeResult struct {
	remaining []*run // surviving, possibly-merged runs, in range order
	runs      []*run // the reclaimed (absorbed-away) runs, in the order they were reclaimed
}

// mergePass repeatedly merges the adjacent pair of runs with the smallest
// maxDiff, as long as that minimum is below mergeThreshold*totalFreq, and
// stops early once the number of still-unmerged runs drops to the size of
// the reclaimed pile -- a guard spec §4.2.5 calls "a deliberate departure
// from the published algorithm" meant to keep the split phase from
// cannibalizing runs that have already been merged.
func mergePass(active []*run, totalFreq, mergeThreshold float64) mergeResult {
	threshold := mergeThreshold * totalFreq
	var reclaimed []*run

	for {
		if len(active) < 2 {
			break
		}

		unmergedCount := 0
		for _, r := range active {
			if !r.merged {
				unmergedCount++
			}
		}
		if unmergedCount <= len(reclaimed) {
			break
		}

		bestIdx := -1
		bestDiff := math.Inf(1)
		for i := 0; i < len(active)-1; i++ {
			d := maxDiff(active[i], active[i+1])
			if d < bestDiff {
				bestDiff = d
				bestIdx = i
			}
		}
		if bestIdx < 0 || bestDiff >= threshold {
			break
		}

		a, b := active[bestIdx], active[bestIdx+1]
		a.absorb(b)
		reclaimed = append(reclaimed, b)
		active = append(active[:bestIdx+1], active[bestIdx+2:]...)
	}

	return mergeResult{remaining: active, runs: reclaimed}
}

// splitPass takes the top ceil(B*splitThreshold) runs (by the ordering
// computed in restructure's phase 3) as split candidates, and divides the
// reclaimed pile among them in proportion to each candidate's totalFreq
// (spec §4.2.5 step 4). It returns every run that should end up in the
// final bucket array: split and unsplit candidates, non-candidate runs
// unchanged, and the reclaimed runs repurposed as new pieces.
func splitPass(ordered []*run, reclaimed []*run, bucketCount int, splitThreshold float64) []*run {
	out := make([]*run, 0, bucketCount)

	nCandidates := int(math.Ceil(float64(bucketCount) * splitThreshold))
	if len(reclaimed) > 0 && nCandidates < 1 {
		// However small SplitThreshold is, a non-empty reclaimed pile must
		// be redistributed somewhere to keep the bucket count at B; fall
		// back to giving it all to the single hottest run.
		nCandidates = 1
	}
	if nCandidates > len(ordered) {
		nCandidates = len(ordered)
	}
	candidates := ordered[:nCandidates]
	rest := ordered[nCandidates:]
	out = append(out, rest...)

	if len(candidates) == 0 || len(reclaimed) == 0 {
		return append(out, candidates...)
	}

	var totalCandidateFreq float64
	for _, c := range candidates {
		totalCandidateFreq += c.totalFreq
	}

	reclaimIdx := 0
	for i, c := range candidates {
		var nAlloc int
		if i == len(candidates)-1 {
			// Last candidate absorbs everything left over, guaranteeing
			// the reclaimed pile is fully consumed.
			nAlloc = len(reclaimed) - reclaimIdx
		} else if totalCandidateFreq > 0 {
			nAlloc = int(math.Floor(float64(len(reclaimed)) * c.totalFreq / totalCandidateFreq))
			if remaining := len(reclaimed) - reclaimIdx; nAlloc > remaining {
				nAlloc = remaining
			}
		}

		pieces := splitRun(c, reclaimed[reclaimIdx:reclaimIdx+nAlloc])
		reclaimIdx += nAlloc
		out = append(out, pieces...)
	}

	return out
}

// splitRun divides c's range and frequency into len(extra)+1 equal pieces.
// c is updated in place to become the first piece; each run in extra
// becomes one of the remaining pieces, in range order. The final piece's
// upper bound is set to c's original upper bound exactly (not accumulated
// by repeated addition) so that range coverage has no floating-point
// drift at the edge (spec §4.2.5 step 4, scenario 6).
func splitRun(c *run, extra []*run) []*run {
	pieceCount := len(extra) + 1
	if pieceCount == 1 {
		return []*run{c}
	}

	origLo, origHi, origFreq := c.lo, c.hi, c.totalFreq
	width := origHi.Sub(origLo) / float64(pieceCount)
	freqPerPiece := origFreq / float64(pieceCount)

	pieces := make([]*run, pieceCount)
	lo := origLo
	for i := 0; i < pieceCount; i++ {
		var hi Projection
		if i == pieceCount-1 {
			hi = origHi
		} else {
			hi = Numeric(origLo.Magnitude + width*float64(i+1))
		}

		var target *run
		if i == 0 {
			target = c
		} else {
			target = extra[i-1]
		}
		target.lo, target.hi = lo, hi
		target.totalFreq = freqPerPiece
		target.freqLo, target.freqHi = freqPerPiece, freqPerPiece
		target.indices = c.indices // provenance only; not load-bearing downstream
		target.merged = false

		pieces[i] = target
		lo = hi
	}
	return pieces
}
