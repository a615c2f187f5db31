// Copyright 2016 Google Inc. All Rights Reserved.
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

// Package merk is the balanced, authenticated tree (C2+C3 in spec.md's
// component breakdown) that backs every subtree in a GroveDB-Go forest: node
// and link representation, apply/get/commit, and the aggregate propagation
// shared by the typed tree variants.
package merk

import (
	"fmt"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
)

// TreeType selects which aggregate fields a tree (and every node within it)
// carries, and how they propagate on every mutation. It is fixed for the
// lifetime of a Tree; it is also carried by the element package's Tree
// Element variant so a forest can tell what kind of child tree it opened.
type TreeType int

const (
	// TreeTypeNormal carries no aggregate.
	TreeTypeNormal TreeType = iota
	// TreeTypeSum carries a signed 64-bit sum.
	TreeTypeSum
	// TreeTypeBigSum carries a signed 128-bit sum.
	TreeTypeBigSum
	// TreeTypeCount carries an unsigned 64-bit count.
	TreeTypeCount
	// TreeTypeCountSum carries both a count and a sum.
	TreeTypeCountSum
	// TreeTypeProvableCount carries an unsigned 64-bit count that proof
	// generation additionally commits to in the Node payload stream, so
	// verifiers can re-derive it without trusting the prover (spec.md §9
	// Open Questions resolution).
	TreeTypeProvableCount
)

func (t TreeType) String() string {
	switch t {
	case TreeTypeNormal:
		return "Normal"
	case TreeTypeSum:
		return "Sum"
	case TreeTypeBigSum:
		return "BigSum"
	case TreeTypeCount:
		return "Count"
	case TreeTypeCountSum:
		return "CountSum"
	case TreeTypeProvableCount:
		return "ProvableCount"
	default:
		return fmt.Sprintf("TreeType(%d)", int(t))
	}
}

// HasSum reports whether t carries a sum component (Sum, BigSum, CountSum).
func (t TreeType) HasSum() bool {
	return t == TreeTypeSum || t == TreeTypeBigSum || t == TreeTypeCountSum
}

// HasCount reports whether t carries a count component (Count, CountSum,
// ProvableCount).
func (t TreeType) HasCount() bool {
	return t == TreeTypeCount || t == TreeTypeCountSum || t == TreeTypeProvableCount
}

// Aggregate is the typed numeric contribution FeatureType carries, per
// spec.md §3. The same shape serves two roles in this package: a KV's own
// leaf contribution (what the spec calls FeatureType), and a node's
// subtree-wide total (what accumulates bottom-up into node_hash's
// aggregate_encoding). Only the fields matching Type are meaningful.
type Aggregate struct {
	Type     TreeType
	Sum      int64  // Sum, CountSum
	BigSumHi int64  // BigSum high word
	BigSumLo uint64 // BigSum low word
	Count    uint64 // Count, CountSum, ProvableCount
}

// ZeroAggregate returns the identity element for t: the aggregate a freshly
// inserted leaf with no contribution of its own would carry.
func ZeroAggregate(t TreeType) Aggregate {
	return Aggregate{Type: t}
}

// Encode serializes a per the wire format of spec.md §6: empty for Normal,
// i64_le for Sum, i128_le for BigSum, u64_le for Count, u64_le‖i64_le for
// CountSum, u64_le for ProvableCount.
func (a Aggregate) Encode() []byte {
	switch a.Type {
	case TreeTypeNormal:
		return nil
	case TreeTypeSum:
		return hash.EncodeI64(a.Sum)
	case TreeTypeBigSum:
		return hash.EncodeI128(a.BigSumHi, a.BigSumLo)
	case TreeTypeCount, TreeTypeProvableCount:
		return hash.EncodeU64(a.Count)
	case TreeTypeCountSum:
		return hash.EncodeCountSum(a.Count, a.Sum)
	default:
		return nil
	}
}

// DecodeAggregate is the inverse of Encode for the given TreeType.
func DecodeAggregate(t TreeType, buf []byte) (Aggregate, error) {
	a := Aggregate{Type: t}
	switch t {
	case TreeTypeNormal:
		return a, nil
	case TreeTypeSum:
		if len(buf) != 8 {
			return a, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "sum aggregate: want 8 bytes, got %d", len(buf))
		}
		a.Sum = hash.DecodeI64(buf)
	case TreeTypeBigSum:
		if len(buf) != 16 {
			return a, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "big sum aggregate: want 16 bytes, got %d", len(buf))
		}
		a.BigSumHi, a.BigSumLo = hash.DecodeI128(buf)
	case TreeTypeCount, TreeTypeProvableCount:
		if len(buf) != 8 {
			return a, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "count aggregate: want 8 bytes, got %d", len(buf))
		}
		a.Count = hash.DecodeU64(buf)
	case TreeTypeCountSum:
		if len(buf) != 16 {
			return a, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "count+sum aggregate: want 16 bytes, got %d", len(buf))
		}
		a.Count, a.Sum = hash.DecodeCountSum(buf)
	default:
		return a, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "unknown tree type %d", int(t))
	}
	return a, nil
}

// Add combines two aggregates of the same Type, as when folding a node's own
// contribution with its children's subtree totals. It errors with
// ErrOverflow if a signed sum or the BigSum 128-bit value would overflow.
func (a Aggregate) Add(b Aggregate) (Aggregate, error) {
	if a.Type != b.Type {
		return Aggregate{}, groveerrors.Wrapf(groveerrors.ErrInternal, "aggregate type mismatch: %s vs %s", a.Type, b.Type)
	}
	out := Aggregate{Type: a.Type}
	switch a.Type {
	case TreeTypeNormal:
		return out, nil
	case TreeTypeSum:
		sum, err := addI64(a.Sum, b.Sum)
		if err != nil {
			return out, err
		}
		out.Sum = sum
	case TreeTypeBigSum:
		hi, lo, err := addI128(a.BigSumHi, a.BigSumLo, b.BigSumHi, b.BigSumLo)
		if err != nil {
			return out, err
		}
		out.BigSumHi, out.BigSumLo = hi, lo
	case TreeTypeCount, TreeTypeProvableCount:
		out.Count = a.Count + b.Count
	case TreeTypeCountSum:
		out.Count = a.Count + b.Count
		sum, err := addI64(a.Sum, b.Sum)
		if err != nil {
			return out, err
		}
		out.Sum = sum
	}
	return out, nil
}

func addI64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, groveerrors.Wrapf(groveerrors.ErrOverflow, "i64 sum overflow: %d + %d", a, b)
	}
	return sum, nil
}

// addI128 adds two (hi, lo) two's-complement 128-bit values represented as a
// signed high word and unsigned low word.
func addI128(hiA int64, loA uint64, hiB int64, loB uint64) (int64, uint64, error) {
	lo := loA + loB
	carry := int64(0)
	if lo < loA {
		carry = 1
	}
	hi := hiA + hiB + carry
	// Overflow detection mirrors addI64's logic applied to the high word,
	// treating the carry as part of b's contribution.
	bHiWithCarry := hiB + carry
	if (bHiWithCarry > 0 && hi < hiA) || (bHiWithCarry < 0 && hi > hiA) {
		return 0, 0, groveerrors.Wrapf(groveerrors.ErrOverflow, "i128 sum overflow")
	}
	return hi, lo, nil
}
