// Copyright 2025 go-loopnest Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package exact provides reduction operators over arbitrary-precision
// decimals. Unlike float sums, their results do not depend on the order in
// which a parallel backend combines partials.
package exact

import (
	"github.com/shopspring/decimal"

	"github.com/ajroetker/go-loopnest/kernel/reduce"
)

// Sum adds decimals exactly.
type Sum struct{}

var _ reduce.Op[decimal.Decimal] = Sum{}

func (Sum) Identity() decimal.Decimal { return decimal.Zero }

func (Sum) Combine(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }

func (Sum) Name() string { return "decimal_sum" }

// Max keeps the largest decimal. Its identity is a sentinel that loses to
// every value, so Max over no values leaves the target unchanged.
type Max struct{}

var _ reduce.Op[decimal.Decimal] = Max{}

// noValue is the Max identity. decimal.Decimal has no -Inf; the sentinel is
// recognized by its exponent and never compared arithmetically.
var noValue = decimal.New(-1, 1<<20)

func (Max) Identity() decimal.Decimal { return noValue }

func (Max) Combine(a, b decimal.Decimal) decimal.Decimal {
	switch {
	case isNoValue(a):
		return b
	case isNoValue(b):
		return a
	}
	return decimal.Max(a, b)
}

func (Max) Name() string { return "decimal_max" }

func isNoValue(d decimal.Decimal) bool {
	return d.Exponent() == noValue.Exponent() && d.Equal(noValue)
}

// NewSum returns a Sum reducer folding into target.
func NewSum(target *decimal.Decimal) *reduce.Reducer[decimal.Decimal] {
	return reduce.New[decimal.Decimal](Sum{}, target)
}

// NewMax returns a Max reducer folding into target.
func NewMax(target *decimal.Decimal) *reduce.Reducer[decimal.Decimal] {
	return reduce.New[decimal.Decimal](Max{}, target)
}

// Parse parses each string as a decimal.
func Parse(values ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
