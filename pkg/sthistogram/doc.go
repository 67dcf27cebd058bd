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

// Package sthistogram implements a self-tuning equi-width histogram used to
// estimate the selectivity of range predicates on an indexed field.
//
// Unlike a histogram built by scanning the underlying data, a self-tuning
// histogram never reads the table it describes. Instead, every query that
// executes a range scan reports back how many rows it actually returned,
// and the histogram nudges its per-bucket frequency estimates toward that
// observation. Periodically it restructures itself, merging runs of
// buckets whose frequencies have converged and splitting the buckets that
// are carrying the most weight, so that bucket resolution migrates toward
// the hot regions of the value domain over time.
//
// The package exposes three layers: Projection, a total order over the
// scalar values a histogram indexes; Histogram, the bucket array and its
// estimate/update/restructure operations; and HistogramCache, which owns
// one Histogram per indexed field and lazily constructs it on first use.
package sthistogram
