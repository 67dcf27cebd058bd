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

import "math"

// ClassNumeric is the type-class tag for ordinary numeric domain values.
// It is the only class this package's own types produce, but callers may
// project other type families into distinct class tags (e.g. one per BSON
// type) as long as the ordering they impose on classes is stable.
const ClassNumeric = 10

// DomainValue is the interface the core consumes from its host's value
// system (spec §6: "the core consumes from collaborators"). A DomainValue
// supplies a type-class tag and, for numeric types, a magnitude; the host
// is responsible for assigning distinct TypeClass values to distinct type
// families and for keeping AsNumber meaningless (it is never called) for
// non-numeric classes.
type DomainValue interface {
	// TypeClass identifies the value's type family. Values in different
	// classes are ordered strictly by class; values in the same class are
	// ordered by AsNumber.
	TypeClass() int
	// AsNumber returns the value's magnitude. Only called when TypeClass
	// reports a numeric class.
	AsNumber() float64
}

// Projection is a comparable scalar produced from a DomainValue: a pair of
// ⟨type-class, magnitude⟩ ordered lexicographically. It is the total order
// histograms and buckets are built over (spec §3, §4.1).
type Projection struct {
	Class     int
	Magnitude float64
}

// NewProjection projects a DomainValue into comparable scalar space. Non-
// numeric values project to magnitude 0; only their class participates in
// ordering.
func NewProjection(v DomainValue) Projection {
	class := v.TypeClass()
	if class != ClassNumeric {
		return Projection{Class: class}
	}
	return Projection{Class: class, Magnitude: v.AsNumber()}
}

// Numeric constructs a Projection directly from a float64 in ClassNumeric,
// skipping the DomainValue indirection. This is the common case for tests
// and for the histogram's own internal bucket-boundary arithmetic.
func Numeric(magnitude float64) Projection {
	return Projection{Class: ClassNumeric, Magnitude: magnitude}
}

// Compare returns a negative number if p < other, zero if p == other, and a
// positive number if p > other. Ordering is lexicographic on (Class,
// Magnitude), matching the Sub sign contract below.
func (p Projection) Compare(other Projection) int {
	if p.Class != other.Class {
		return p.Class - other.Class
	}
	switch {
	case p.Magnitude < other.Magnitude:
		return -1
	case p.Magnitude > other.Magnitude:
		return 1
	default:
		return 0
	}
}

// Less reports whether p orders strictly before other.
func (p Projection) Less(other Projection) bool {
	return p.Compare(other) < 0
}

// Sub returns p - other. If both operands are in the same class, this is
// plain magnitude subtraction. If they straddle a class boundary, Sub
// returns a signed infinity whose sign matches the sign of (p.Class -
// other.Class); downstream code treats any non-finite width as "this
// bucket does not intersect the query range" (spec §4.1).
func (p Projection) Sub(other Projection) float64 {
	if p.Class == other.Class {
		return p.Magnitude - other.Magnitude
	}
	if p.Class > other.Class {
		return math.Inf(1)
	}
	return math.Inf(-1)
}
