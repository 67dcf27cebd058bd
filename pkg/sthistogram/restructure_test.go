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
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRestructureMergesUniformRegion restructures a histogram whose
// equal-frequency buckets are mergeable and whose first range is hot, and
// checks that it keeps B buckets with intact coverage and that the first
// bucket (covering the hot range) has the highest frequency.
func TestRestructureMergesUniformRegion(t *testing.T) {
	cfg := Config{
		InitialSize:     10,
		InitialBinValue: 10,
		InitialLow:      0,
		InitialHigh:     100,
		Alpha:           0.5,
		MergeThreshold:  0.01, // generous, so equal-freq buckets reliably merge
		SplitThreshold:  0.2,
		MergeInterval:   1, // restructure on every update, for direct control
	}
	h, err := NewHistogram(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	// With MergeInterval 1 this Update first restructures the uniform
	// histogram (merging its leading equal buckets), then drives the range
	// [0, 10) far above the rest of the histogram.
	h.Update(ctx, Numeric(0), Numeric(10), 500)

	h.restructure(ctx)

	require.Equal(t, cfg.InitialSize, h.BucketCount())
	requireCoverageInvariantsOn(t, h)

	snap := h.Snapshot()
	maxFreq := snap[0].Freq
	for _, b := range snap[1:] {
		require.GreaterOrEqual(t, maxFreq, b.Freq,
			"the bucket(s) covering the hot range should end up with the highest frequency")
	}
}

// TestRestructureIsNoOpOnEmptyHistogram guards against a panic if
// restructure is ever invoked on a zero-bucket histogram (defensive, since
// NewHistogram itself rejects InitialSize < 1).
func TestRestructureIsNoOpOnEmptyHistogram(t *testing.T) {
	h := &Histogram{cfg: DefaultConfig()}
	require.NotPanics(t, func() { h.restructure(context.Background()) })
	require.Equal(t, 0, h.BucketCount())
}

// TestRestructureConservesFrequencyWithMinimalSplitThreshold checks that
// even with SplitThreshold rounded down to 0 candidates, restructuring a
// histogram with no observations conserves total frequency exactly and
// still returns exactly B buckets (the reclaimed pile has to go
// somewhere).
func TestRestructureConservesFrequencyWithMinimalSplitThreshold(t *testing.T) {
	cfg := Config{
		InitialSize:     8,
		InitialBinValue: 5,
		InitialLow:      -50,
		InitialHigh:     50,
		Alpha:           0.5,
		MergeThreshold:  0.01,
		SplitThreshold:  0,
		MergeInterval:   1,
	}
	h, err := NewHistogram(cfg)
	require.NoError(t, err)

	before := h.TotalFreq()
	h.restructure(context.Background())
	require.InDelta(t, before, h.TotalFreq(), 1e-9)
	require.Equal(t, cfg.InitialSize, h.BucketCount())
}

func requireCoverageInvariantsOn(t *testing.T, h *Histogram) {
	t.Helper()
	snap := h.Snapshot()
	for i := 0; i < len(snap)-1; i++ {
		require.Equal(t, snap[i].Hi, snap[i+1].Lo)
	}
	for _, b := range snap {
		require.True(t, b.Lo.Less(b.Hi))
		require.GreaterOrEqual(t, b.Freq, 0.0)
	}
}
