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

// Package proofs implements C4: the MerkTree proof operator stream, the
// query range algebra that drives proof generation, generation itself, and
// verification.
package proofs

import (
	"bytes"
	"sort"
)

// Bound is one end of a QueryItem's key range. A nil *Bound means the range
// is unbounded on that side.
type Bound struct {
	Value     []byte
	Inclusive bool
}

// QueryItem is one byte-lex range in a query's union, per spec.md §4.4. The
// named constructors below mirror the spec's closed variant set (Key,
// Range, RangeInclusive, RangeFrom, RangeTo, RangeToInclusive, RangeAfter,
// RangeAfterTo, RangeAfterToInclusive, RangeFull); internally every variant
// is just a (Lower, Upper) bound pair, which is what the merge algebra of
// §4.4.1 actually operates on.
type QueryItem struct {
	Lower *Bound // nil: unbounded below
	Upper *Bound // nil: unbounded above
}

// Key returns a QueryItem matching exactly one key.
func Key(k []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: k, Inclusive: true}, Upper: &Bound{Value: k, Inclusive: true}}
}

// Range returns the half-open range [a, b).
func Range(a, b []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: true}, Upper: &Bound{Value: b, Inclusive: false}}
}

// RangeInclusive returns the closed range [a, b].
func RangeInclusive(a, b []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: true}, Upper: &Bound{Value: b, Inclusive: true}}
}

// RangeFrom returns [a, ·): everything at or after a.
func RangeFrom(a []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: true}}
}

// RangeTo returns (·, b): everything strictly before b.
func RangeTo(b []byte) QueryItem {
	return QueryItem{Upper: &Bound{Value: b, Inclusive: false}}
}

// RangeToInclusive returns (·, b]: everything at or before b.
func RangeToInclusive(b []byte) QueryItem {
	return QueryItem{Upper: &Bound{Value: b, Inclusive: true}}
}

// RangeAfter returns (a, ·): everything strictly after a.
func RangeAfter(a []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: false}}
}

// RangeAfterTo returns (a, b): everything strictly between a and b.
func RangeAfterTo(a, b []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: false}, Upper: &Bound{Value: b, Inclusive: false}}
}

// RangeAfterToInclusive returns (a, b]: strictly after a, at or before b.
func RangeAfterToInclusive(a, b []byte) QueryItem {
	return QueryItem{Lower: &Bound{Value: a, Inclusive: false}, Upper: &Bound{Value: b, Inclusive: true}}
}

// RangeFull returns every key.
func RangeFull() QueryItem {
	return QueryItem{}
}

// Contains reports whether key falls within the item's range.
func (q QueryItem) Contains(key []byte) bool {
	if q.Lower != nil {
		cmp := bytes.Compare(key, q.Lower.Value)
		if cmp < 0 || (cmp == 0 && !q.Lower.Inclusive) {
			return false
		}
	}
	if q.Upper != nil {
		cmp := bytes.Compare(key, q.Upper.Value)
		if cmp > 0 || (cmp == 0 && !q.Upper.Inclusive) {
			return false
		}
	}
	return true
}

// overlaps reports whether a and b's closed intervals intersect, per
// spec.md §4.4.1 ("Two query items overlap iff their closed intervals
// intersect") — inclusivity is deliberately ignored here, only in the
// merged result.
func overlaps(a, b QueryItem) bool {
	if a.Upper != nil && b.Lower != nil && bytes.Compare(a.Upper.Value, b.Lower.Value) < 0 {
		return false
	}
	if b.Upper != nil && a.Lower != nil && bytes.Compare(b.Upper.Value, a.Lower.Value) < 0 {
		return false
	}
	return true
}

// merge combines two overlapping items into the item spanning (min lower
// bound, max upper bound), promoting inclusivity whenever either side was
// inclusive at the chosen bound.
func merge(a, b QueryItem) QueryItem {
	return QueryItem{Lower: mergeLower(a.Lower, b.Lower), Upper: mergeUpper(a.Upper, b.Upper)}
}

func mergeLower(a, b *Bound) *Bound {
	if a == nil || b == nil {
		return nil
	}
	switch bytes.Compare(a.Value, b.Value) {
	case -1:
		return a
	case 1:
		return b
	default:
		return &Bound{Value: a.Value, Inclusive: a.Inclusive || b.Inclusive}
	}
}

func mergeUpper(a, b *Bound) *Bound {
	if a == nil || b == nil {
		return nil
	}
	switch bytes.Compare(a.Value, b.Value) {
	case 1:
		return a
	case -1:
		return b
	default:
		return &Bound{Value: a.Value, Inclusive: a.Inclusive || b.Inclusive}
	}
}

// Normalize sorts items by lower bound and folds overlapping items
// left-to-right, producing the minimal, non-overlapping, sorted set that
// Generate requires before walking the tree (spec.md §4.4.1).
func Normalize(items []QueryItem) []QueryItem {
	sorted := make([]QueryItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := sorted[i].Lower, sorted[j].Lower
		if li == nil && lj == nil {
			return false
		}
		if li == nil {
			return true
		}
		if lj == nil {
			return false
		}
		cmp := bytes.Compare(li.Value, lj.Value)
		if cmp != 0 {
			return cmp < 0
		}
		return li.Inclusive && !lj.Inclusive
	})

	var out []QueryItem
	for _, it := range sorted {
		if len(out) == 0 {
			out = append(out, it)
			continue
		}
		last := &out[len(out)-1]
		if overlaps(*last, it) {
			*last = merge(*last, it)
		} else {
			out = append(out, it)
		}
	}
	return out
}

// Query is an ordered union of QueryItems, per spec.md §4.4.
type Query struct {
	Items []QueryItem
}

// Normalized returns q with its items merge-normalized.
func (q Query) Normalized() Query {
	return Query{Items: Normalize(q.Items)}
}

// Contains reports whether key is covered by any item in q.
func (q Query) Contains(key []byte) bool {
	for _, it := range q.Items {
		if it.Contains(key) {
			return true
		}
	}
	return false
}

// PathQuery pairs a forest path with a Query and an optional result-size
// limit, per spec.md §4.4.
type PathQuery struct {
	Path   [][]byte
	Query  Query
	Limit  *uint64
	Offset *uint64
}
