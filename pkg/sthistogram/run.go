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

// run is the transient restructuring-only unit described in spec §3: a
// contiguous group of original bucket indices treated as a merged whole.
//
// The source this package's domain descends from represents runs as a
// doubly-linked list with iterators held in pairs to track the best merge
// candidate, and erases list nodes during a forward scan by decrementing
// the loop variable -- an iterator-invalidation hazard that a from-scratch
// implementation has no reason to reproduce (spec §9). Here a run is a
// plain struct referenced through a dense, index-addressed slice;
// "merging b into a" is "fold b's fields into a", and the caller removes b
// from the active slice in the same step.
type run struct {
	// indices lists, in ascending order, the original bucket indices this
	// run was built from. Until the split phase, length > 1 iff merged is
	// true; split pieces share their source run's indices with merged false.
	indices []int

	totalFreq      float64
	freqLo, freqHi float64
	lo, hi         Projection

	// merged is true iff this run spans more than one original bucket.
	merged bool
}

// newRunFromBucket seeds a one-bucket run (restructure phase 1: "seed
// runs").
func newRunFromBucket(idx int, b Bucket) *run {
	return &run{
		indices: []int{idx},
		totalFreq: b.Freq,
		freqLo:    b.Freq,
		freqHi:    b.Freq,
		lo:        b.Lo,
		hi:        b.Hi,
	}
}

// absorb merges other into r: other's bucket indices, frequency, and range
// are folded into r, and r becomes (or remains) a merged run. other is
// left untouched; the caller is responsible for retiring it.
func (r *run) absorb(other *run) {
	r.indices = append(r.indices, other.indices...)
	r.totalFreq += other.totalFreq
	if other.freqLo < r.freqLo {
		r.freqLo = other.freqLo
	}
	if other.freqHi > r.freqHi {
		r.freqHi = other.freqHi
	}
	// Runs are merged left-to-right in bucket order; r and other are
	// always range-adjacent, so the union's bounds are just whichever end
	// extends the range.
	if other.lo.Less(r.lo) {
		r.lo = other.lo
	}
	if r.hi.Less(other.hi) {
		r.hi = other.hi
	}
	r.merged = true
}

// maxDiff computes the pairwise merge-candidate score from spec §4.2.5
// step 2: max(b.freqHi - a.freqLo, a.freqHi - b.freqLo). The smaller this
// is, the more alike the two runs' frequency ranges are, and the better a
// merge candidate the pair makes.
func maxDiff(a, b *run) float64 {
	d1 := b.freqHi - a.freqLo
	d2 := a.freqHi - b.freqLo
	if d1 > d2 {
		return d1
	}
	return d2
}
