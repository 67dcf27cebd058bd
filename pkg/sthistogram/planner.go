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

import "context"

// Interval is a half-open range [Start, End) of DomainValues, one of the
// disjoint pieces an index-bounds constraint is made of (spec §6).
type Interval struct {
	Start, End DomainValue
}

// OrderedIntervalList is a disjoint, ascending-by-start list of Intervals
// constraining a single index key field (spec §6).
type OrderedIntervalList struct {
	Intervals []Interval
}

// IndexBounds is the planner's representation of an index scan's key
// constraints: one OrderedIntervalList per field of the (possibly
// compound) index key (spec §6).
type IndexBounds struct {
	Fields []OrderedIntervalList
}

// UpdateParams bundles the feedback an executed index scan reports back to
// the cache: the bounds it scanned and the number of rows it returned
// (spec §6).
type UpdateParams struct {
	Bounds    *IndexBounds
	NReturned int64
}

// numericDomainValue adapts a DomainValue to a Projection, reporting
// ok=false if the value is not numeric (spec §4.4: "Intervals whose
// endpoints are non-numeric are skipped").
func numericDomainValue(v DomainValue) (Projection, bool) {
	if v.TypeClass() != ClassNumeric {
		return Projection{}, false
	}
	return NewProjection(v), true
}

// EstimateSelectivity estimates the number of rows an index scan
// constrained by bounds will return, using the histogram for the scan's
// indexed field (spec §4.4).
//
// Only the first field of bounds is consulted; additional fields are an
// acknowledged single-dimensional limitation carried over unchanged from
// the spec, and their presence is logged once per cache via
// warnMultiFieldOnce (spec §7). Intervals with a non-numeric endpoint
// contribute 0 and are logged at debug level.
func (c *HistogramCache) EstimateSelectivity(ctx context.Context, key IndexKey, bounds *IndexBounds) float64 {
	if bounds == nil || len(bounds.Fields) == 0 {
		return 0
	}
	if len(bounds.Fields) > 1 {
		c.warnMultiFieldOnce(ctx)
	}

	h, ok := c.Get(ctx, key)
	if !ok {
		return 0
	}

	var total float64
	for _, iv := range bounds.Fields[0].Intervals {
		lo, loOK := numericDomainValue(iv.Start)
		hi, hiOK := numericDomainValue(iv.End)
		if !loOK || !hiOK {
			if logV(2) {
				logInfof(ctx, "skipping interval with non-numeric endpoint")
			}
			continue
		}
		total += h.GetFreqOnRange(lo, hi)
	}
	return total
}

// UpdateFromExecution forwards the query feedback in params to the
// histogram for key, constructing it first if necessary (spec §4.3,
// §4.4). Like EstimateSelectivity, it only incorporates the first field of
// params.Bounds and skips non-numeric interval endpoints.
func (c *HistogramCache) UpdateFromExecution(ctx context.Context, key IndexKey, params UpdateParams) error {
	if params.Bounds == nil || len(params.Bounds.Fields) == 0 {
		return nil
	}
	if len(params.Bounds.Fields) > 1 {
		c.warnMultiFieldOnce(ctx)
	}

	intervals := params.Bounds.Fields[0].Intervals
	if len(intervals) == 0 {
		return nil
	}

	// The observed row count describes the whole scan, not any one
	// interval; when a field has multiple disjoint intervals we attribute
	// the full observation to each, mirroring how Histogram.Update treats
	// a single range -- there is no finer-grained feedback available than
	// "this scan, across all its intervals, returned N rows".
	for _, iv := range intervals {
		lo, loOK := numericDomainValue(iv.Start)
		hi, hiOK := numericDomainValue(iv.End)
		if !loOK || !hiOK {
			if logV(2) {
				logInfof(ctx, "skipping interval with non-numeric endpoint")
			}
			continue
		}
		if err := c.Update(ctx, key, lo, hi, float64(params.NReturned)); err != nil {
			return err
		}
	}
	return nil
}
