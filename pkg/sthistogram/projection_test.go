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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// nonNumericValue is a DomainValue for a type class other than
// ClassNumeric, used to exercise cross-class comparisons.
type nonNumericValue struct{ class int }

func (v nonNumericValue) TypeClass() int     { return v.class }
func (v nonNumericValue) AsNumber() float64  { panic("AsNumber must not be called for a non-numeric class") }

type numericValue float64

func (v numericValue) TypeClass() int    { return ClassNumeric }
func (v numericValue) AsNumber() float64 { return float64(v) }

func TestProjectionOrdering(t *testing.T) {
	testCases := []struct {
		name string
		a, b Projection
		want int // sign of a.Compare(b)
	}{
		{"same class, a < b", Numeric(1), Numeric(2), -1},
		{"same class, a > b", Numeric(5), Numeric(2), 1},
		{"same class, equal", Numeric(3), Numeric(3), 0},
		{"different classes, a < b", Projection{Class: 1}, Projection{Class: 2}, -1},
		{"different classes, a > b", Projection{Class: 9}, Projection{Class: 2}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.Compare(tc.b)
			switch {
			case tc.want < 0:
				require.Negative(t, got)
			case tc.want > 0:
				require.Positive(t, got)
			default:
				require.Zero(t, got)
			}
			require.Equal(t, tc.want < 0, tc.a.Less(tc.b))
		})
	}
}

func TestProjectionSub(t *testing.T) {
	t.Run("same class subtracts magnitudes", func(t *testing.T) {
		require.Equal(t, 3.0, Numeric(5).Sub(Numeric(2)))
		require.Equal(t, -3.0, Numeric(2).Sub(Numeric(5)))
	})

	t.Run("cross-class yields signed infinity", func(t *testing.T) {
		a := Projection{Class: 20}
		b := Projection{Class: 10}
		require.True(t, math.IsInf(a.Sub(b), 1))
		require.True(t, math.IsInf(b.Sub(a), -1))
	})
}

func TestNewProjection(t *testing.T) {
	p := NewProjection(numericValue(42))
	require.Equal(t, Projection{Class: ClassNumeric, Magnitude: 42}, p)

	nn := NewProjection(nonNumericValue{class: 7})
	require.Equal(t, Projection{Class: 7, Magnitude: 0}, nn)
}
