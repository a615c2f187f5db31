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

package proofs

import (
	"context"

	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/storage"
)

// GenerateOptions configures proof generation. LeftToRight carries the
// `ProofParams{left_to_right}` knob named in original_source/grovedb-query
// (see SPEC_FULL.md §9): the traversal direction used to decide which
// child's Push/merge ops are emitted first. Both directions reconstruct the
// same tree and the same ascending result order; the difference is only the
// op stream's shape.
type GenerateOptions struct {
	LeftToRight bool
}

// Result is one (key, value) pair a proof's query forced into range.
type Result struct {
	Key, Value []byte
}

// Generate walks root and emits the minimum-information operator stream
// covering query, per spec.md §4.4. A nil root (empty tree) produces an
// empty stream and no results.
func Generate(ctx context.Context, root *merk.NodeHandle, query Query, opts GenerateOptions) ([]Op, []Result, storage.Cost, error) {
	if root == nil {
		return nil, nil, storage.Cost{}, nil
	}
	items := Normalize(query.Items)
	g := &generator{opts: opts}
	cost, err := g.walk(ctx, root, items, nil, nil)
	if !opts.LeftToRight {
		// A right-to-left walk visits keys in descending order.
		for i, j := 0, len(g.results)-1; i < j; i, j = i+1, j-1 {
			g.results[i], g.results[j] = g.results[j], g.results[i]
		}
	}
	return g.ops, g.results, cost, err
}

type generator struct {
	opts    GenerateOptions
	ops     []Op
	results []Result
}

// sideSpec describes one of a node's two children from the perspective of
// the traversal direction currently in effect: which link it is, the open
// key interval it covers, and which merge opcode reattaches it once
// visited.
type sideSpec struct {
	has      bool
	lo, hi   *Bound
	fetch    func(context.Context) (*merk.NodeHandle, storage.Cost, error)
	linkHash func() (hash.Digest, error)
	merge    OpKind
}

// walk visits h, whose key is known to lie within the open interval
// (low, high) (nil meaning unbounded), and appends the ops/results needed to
// cover every item in items that falls within that interval.
func (g *generator) walk(ctx context.Context, h *merk.NodeHandle, items []QueryItem, low, high *Bound) (storage.Cost, error) {
	var cost storage.Cost

	leftBound := &Bound{Value: h.Key(), Inclusive: false}
	rightBound := &Bound{Value: h.Key(), Inclusive: false}

	var first, second sideSpec
	if g.opts.LeftToRight {
		first = sideSpec{has: h.HasLeft(), lo: low, hi: leftBound, fetch: h.Left, linkHash: h.LeftHash, merge: OpParent}
		second = sideSpec{has: h.HasRight(), lo: rightBound, hi: high, fetch: h.Right, linkHash: h.RightHash, merge: OpChild}
	} else {
		first = sideSpec{has: h.HasRight(), lo: rightBound, hi: high, fetch: h.Right, linkHash: h.RightHash, merge: OpParentInverted}
		second = sideSpec{has: h.HasLeft(), lo: low, hi: leftBound, fetch: h.Left, linkHash: h.LeftHash, merge: OpChildInverted}
	}

	emittedFirst, firstCost, err := g.emitSide(ctx, first, items)
	cost = cost.Add(firstCost)
	if err != nil {
		return cost, err
	}

	inRange := itemsContain(items, h.Key())
	// A node with children also reveals its key, since the verifier derives
	// each child's key interval from it.
	adjacent := !inRange && (rangeTouchesBoundary(items, h.Key()) || h.HasLeft() || h.HasRight())

	var node Node
	switch {
	case inRange:
		node = Node{Kind: NodeKV, Key: h.Key(), Value: h.Value()}
		g.results = append(g.results, Result{Key: h.Key(), Value: h.Value()})
	case adjacent:
		node = Node{Kind: NodeKVDigest, Key: h.Key(), ValueHash: h.ValueHash()}
	default:
		node = Node{Kind: NodeKVHash, Hash: h.KVHash()}
	}
	if h.TreeType() != merk.TreeTypeNormal && node.Kind != NodeHash {
		node.HasAggregate = true
		node.Feature = h.Feature()
		node.SubtreeAggregate = h.Aggregate()
	}
	g.ops = append(g.ops, pushOp(node))

	if emittedFirst {
		g.ops = append(g.ops, Op{Kind: first.merge})
	}

	emittedSecond, secondCost, err := g.emitSide(ctx, second, items)
	cost = cost.Add(secondCost)
	if err != nil {
		return cost, err
	}
	if emittedSecond {
		g.ops = append(g.ops, Op{Kind: second.merge})
	}

	return cost, nil
}

// emitSide visits (or collapses) one child side, reporting whether anything
// was pushed for it at all (a nil link contributes neither a push nor a
// merge op).
func (g *generator) emitSide(ctx context.Context, s sideSpec, items []QueryItem) (bool, storage.Cost, error) {
	if !s.has {
		return false, storage.Cost{}, nil
	}
	if !rangeMayOverlap(items, s.lo, s.hi) {
		d, err := s.linkHash()
		if err != nil {
			return false, storage.Cost{}, err
		}
		g.ops = append(g.ops, pushOp(Node{Kind: NodeHash, Hash: d}))
		return true, storage.Cost{}, nil
	}
	child, childCost, err := s.fetch(ctx)
	if err != nil {
		return false, childCost, err
	}
	c, err := g.walk(ctx, child, items, s.lo, s.hi)
	return true, childCost.Add(c), err
}

// itemsContain reports whether any item covers key exactly.
func itemsContain(items []QueryItem, key []byte) bool {
	for _, it := range items {
		if it.Contains(key) {
			return true
		}
	}
	return false
}

// rangeTouchesBoundary reports whether key sits exactly at one of items'
// bounds, warranting a KVDigest anchor rather than a bare KVHash: a node one
// step outside every item's range still needs its value_hash committed so a
// verifier can confirm nothing was omitted at the boundary.
func rangeTouchesBoundary(items []QueryItem, key []byte) bool {
	for _, it := range items {
		if it.Lower != nil && bytesEqual(it.Lower.Value, key) {
			return true
		}
		if it.Upper != nil && bytesEqual(it.Upper.Value, key) {
			return true
		}
	}
	return false
}

// rangeMayOverlap reports whether any item could intersect the open
// interval (low, high); a false result lets the caller collapse that side
// to a single Hash push.
func rangeMayOverlap(items []QueryItem, low, high *Bound) bool {
	candidate := QueryItem{Lower: low, Upper: high}
	for _, it := range items {
		if overlaps(candidate, it) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
