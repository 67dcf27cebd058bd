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

	"github.com/cockroachdb/sthistogram/pkg/util/syncutil"
)

// IndexKey is an opaque descriptor of an index's key pattern (spec §3, §6).
// It must be comparable, since it is used as a Go map key; the host is
// responsible for choosing a representation (a table/index ID pair, an
// interned string, etc.) that satisfies that requirement.
type IndexKey interface{}

// HistogramCache maps IndexKey to an owned Histogram, lazily constructing
// one on first Update for a key (spec §3, §4.3). Each histogram's lifetime
// is tied to its cache entry; entries live until the cache itself is
// dropped -- there is no eviction policy, unlike the LRU the teacher's
// TableStatisticsCache uses for its (bounded, refreshable) table statistics
// (see DESIGN.md).
//
// Like pkg/sql/stats's TableStatisticsCache, the cache's own map mutations
// are synchronized; the per-histogram Update a cache entry forwards to is
// not (spec §5) -- the host must still ensure at most one writer touches a
// given histogram at a time.
type HistogramCache struct {
	cfg Config

	mu struct {
		syncutil.Mutex
		entries map[IndexKey]*Histogram
	}

	warnMultiField onceFlag
}

// NewHistogramCache returns an empty cache that constructs new histograms
// using cfg's defaults.
func NewHistogramCache(cfg Config) *HistogramCache {
	c := &HistogramCache{cfg: cfg}
	c.mu.entries = make(map[IndexKey]*Histogram)
	return c
}

// Get returns the cached histogram for key, performing no mutation. It
// reports ok=false if no histogram has been constructed for key yet.
func (c *HistogramCache) Get(ctx context.Context, key IndexKey) (h *Histogram, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok = c.mu.entries[key]
	if logV(2) {
		if ok {
			logInfof(ctx, "lookup histogram for key %v: found", key)
		} else {
			logInfof(ctx, "lookup histogram for key %v: not found", key)
		}
	}
	return h, ok
}

// Len returns the number of histograms currently held by the cache.
func (c *HistogramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mu.entries)
}

// Update forwards an observation to the histogram for key, constructing a
// new histogram with the cache's configured defaults if this is the first
// update seen for key (spec §4.3).
func (c *HistogramCache) Update(ctx context.Context, key IndexKey, lo, hi Projection, observed float64) error {
	c.mu.Lock()
	h, ok := c.mu.entries[key]
	if !ok {
		var err error
		h, err = NewHistogram(c.cfg)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.mu.entries[key] = h
		if logV(2) {
			logInfof(ctx, "creating histogram for key %v", key)
		}
	}
	c.mu.Unlock()

	// The per-histogram Update is not safe for concurrent writers (spec
	// §5); it is intentionally called outside the cache's own map lock so
	// that two updates to two different keys never block each other, at
	// the cost of requiring the host to serialize concurrent updates to
	// the *same* key itself.
	h.Update(ctx, lo, hi, observed)
	return nil
}

// onceFlag is a tiny sync.Once-like gate used to log the multi-field
// warning (spec §7: "Logged once") without pulling in sync.Once's zero-
// value semantics subtleties for a single bool flag guarded by the cache's
// own mutex.
type onceFlag struct {
	fired bool
}

// warnMultiFieldOnce logs the multi-field-index warning the first time it
// is called for this cache, and is a no-op afterward.
func (c *HistogramCache) warnMultiFieldOnce(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warnMultiField.fired {
		return
	}
	c.warnMultiField.fired = true
	logWarningf(ctx, "index bounds has more than one field; only the first field is estimated")
}
