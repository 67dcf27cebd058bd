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

// Config holds the tuning constants recognized by a Histogram and by the
// HistogramCache that constructs one on first use (spec §6). These are
// compile-time defaults, not a live settings registry: the feature has no
// CLI, no environment variables, and no on-disk format.
type Config struct {
	// InitialSize is the number of buckets a new histogram is partitioned
	// into (B in spec notation). Must be >= 1.
	InitialSize int
	// InitialBinValue is the starting frequency estimate of every bucket
	// in a freshly constructed histogram.
	InitialBinValue float64
	// InitialLow is the inclusive start of a new histogram's coverage.
	InitialLow float64
	// InitialHigh is the exclusive end of a new histogram's coverage. Must
	// be strictly greater than InitialLow.
	InitialHigh float64
	// Alpha is the damping constant applied to per-update error feedback.
	Alpha float64
	// MergeThreshold is the fraction of total frequency below which two
	// adjacent runs are eligible to merge during restructuring.
	MergeThreshold float64
	// SplitThreshold is the fraction of B selected as split candidates
	// during restructuring.
	SplitThreshold float64
	// MergeInterval is the number of updates between restructure passes.
	MergeInterval int
}

// DefaultConfig returns the tuning defaults documented in spec §6.
func DefaultConfig() Config {
	return Config{
		InitialSize:     15,
		InitialBinValue: 20.0,
		InitialLow:      -100.0,
		InitialHigh:     200.0,
		Alpha:           0.5,
		MergeThreshold:  0.00025,
		SplitThreshold:  0.1,
		MergeInterval:   200,
	}
}
