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

package merk

import (
	"bytes"
	"context"
	"sort"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/storage"
)

// applyAt applies ops (already restricted to the key range below curLink's
// parent and above its neighbor) to the subtree rooted at curLink, returning
// the link that should replace curLink. It never fetches curLink when ops is
// empty, which is what keeps an untouched sibling subtree unloaded through an
// entire Apply call.
func (t *Tree) applyAt(ctx context.Context, curLink *link, ops []Op) (*link, storage.Cost, error) {
	if len(ops) == 0 {
		return curLink, storage.Cost{}, nil
	}
	if curLink == nil {
		return t.buildFromOps(ops)
	}

	cur, cost, err := t.fetch(ctx, curLink)
	if err != nil {
		return nil, cost, err
	}

	idx := sort.Search(len(ops), func(i int) bool {
		return bytes.Compare(ops[i].Key, cur.kv.Key) >= 0
	})
	lt := ops[:idx]
	gtStart := idx
	var eqOp *Op
	if idx < len(ops) && bytes.Equal(ops[idx].Key, cur.kv.Key) {
		eqOp = &ops[idx]
		gtStart = idx + 1
	}
	gt := ops[gtStart:]

	newLeft, costL, err := t.applyAt(ctx, cur.left, lt)
	cost = cost.Add(costL)
	if err != nil {
		return nil, cost, err
	}
	newRight, costR, err := t.applyAt(ctx, cur.right, gt)
	cost = cost.Add(costR)
	if err != nil {
		return nil, cost, err
	}
	cur.left, cur.right = newLeft, newRight

	if eqOp != nil && eqOp.isDelete() {
		replacement, costS, err := t.spliceOut(ctx, cur)
		cost = cost.Add(costS)
		return replacement, cost, err
	}

	if eqOp != nil {
		newKV, err := applyEqOp(t.treeType, cur.kv, *eqOp)
		if err != nil {
			return nil, cost, err
		}
		cur.kv = newKV
	}

	if err := cur.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	newLink, costB, err := t.rebalance(ctx, cur)
	cost = cost.Add(costB)
	return newLink, cost, err
}

// applyEqOp folds a batch op targeting an already-present key into its
// existing KV, per spec.md §4.3.1's per-kind semantics.
func applyEqOp(treeType TreeType, existing KV, op Op) (KV, error) {
	switch op.Kind {
	case OpPut:
		return newKV(existing.Key, op.Value, ZeroAggregate(treeType), nil), nil
	case OpPutWithFeature:
		if op.Feature.Type != treeType {
			return KV{}, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "feature type %s does not match tree type %s", op.Feature.Type, treeType)
		}
		return newKV(existing.Key, op.Value, op.Feature, nil), nil
	case OpPutCombined:
		return newKV(existing.Key, op.Value, ZeroAggregate(treeType), op.ValueHash), nil
	case OpRefreshFeature:
		if op.Feature.Type != treeType {
			return KV{}, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "feature type %s does not match tree type %s", op.Feature.Type, treeType)
		}
		return newKV(existing.Key, existing.Value, op.Feature, &existing.ValueHash), nil
	default:
		return KV{}, groveerrors.Wrapf(groveerrors.ErrInternal, "applyEqOp: unexpected op kind %d", op.Kind)
	}
}

// buildFromOps builds a fresh balanced subtree from a batch landing entirely
// within a previously empty position. Deletes within ops are no-ops; any
// OpRefreshFeature targeting an absent key is an error (there is nothing to
// refresh).
func (t *Tree) buildFromOps(ops []Op) (*link, storage.Cost, error) {
	filtered := make([]Op, 0, len(ops))
	for _, op := range ops {
		if op.isDelete() {
			continue
		}
		filtered = append(filtered, op)
	}
	n, err := buildBalanced(t.treeType, filtered)
	if err != nil {
		return nil, storage.Cost{}, err
	}
	if n == nil {
		return nil, storage.Cost{}, nil
	}
	return modifiedLink(n), storage.Cost{}, nil
}

// buildBalanced builds a height-balanced subtree from a sorted, duplicate-
// free, delete-free slice of Put-like ops by recursively splitting on the
// middle element, so that an initial bulk load produces the same shape
// Apply's rebalancing would converge to (P2).
func buildBalanced(treeType TreeType, ops []Op) (*node, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	mid := len(ops) / 2
	kv, err := kvFromOp(treeType, ops[mid])
	if err != nil {
		return nil, err
	}
	n := newLeaf(treeType, kv)

	left, err := buildBalanced(treeType, ops[:mid])
	if err != nil {
		return nil, err
	}
	right, err := buildBalanced(treeType, ops[mid+1:])
	if err != nil {
		return nil, err
	}
	if left != nil {
		n.left = modifiedLink(left)
	}
	if right != nil {
		n.right = modifiedLink(right)
	}
	if err := n.recomputeLocal(); err != nil {
		return nil, err
	}
	return n, nil
}

func kvFromOp(treeType TreeType, op Op) (KV, error) {
	switch op.Kind {
	case OpPut:
		return newKV(op.Key, op.Value, ZeroAggregate(treeType), nil), nil
	case OpPutWithFeature:
		if op.Feature.Type != treeType {
			return KV{}, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "feature type %s does not match tree type %s", op.Feature.Type, treeType)
		}
		return newKV(op.Key, op.Value, op.Feature, nil), nil
	case OpPutCombined:
		return newKV(op.Key, op.Value, ZeroAggregate(treeType), op.ValueHash), nil
	default:
		return KV{}, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "op kind %d on previously absent key %x", op.Kind, op.Key)
	}
}

// spliceOut removes cur's own KV from the subtree it roots, given that
// cur.left and cur.right already reflect any recursive changes below them.
// It promotes a replacement from whichever child is taller, preferring that
// child's own extremum (its max if promoting from the left, its min if from
// the right), per spec.md §4.3.2's deletion rule.
func (t *Tree) spliceOut(ctx context.Context, cur *node) (*link, storage.Cost, error) {
	if cur.left == nil && cur.right == nil {
		return nil, storage.Cost{}, nil
	}
	if cur.left == nil {
		return cur.right, storage.Cost{}, nil
	}
	if cur.right == nil {
		return cur.left, storage.Cost{}, nil
	}

	var cost storage.Cost
	if linkHeight(cur.left) >= linkHeight(cur.right) {
		kv, remainder, costR, err := t.removeMax(ctx, cur.left)
		cost = cost.Add(costR)
		if err != nil {
			return nil, cost, err
		}
		cur.kv = kv
		cur.left = remainder
	} else {
		kv, remainder, costR, err := t.removeMin(ctx, cur.right)
		cost = cost.Add(costR)
		if err != nil {
			return nil, cost, err
		}
		cur.kv = kv
		cur.right = remainder
	}

	if err := cur.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	newLink, costB, err := t.rebalance(ctx, cur)
	cost = cost.Add(costB)
	return newLink, cost, err
}

// removeMax removes and returns the rightmost KV in the subtree rooted at l,
// along with the link that should replace l. It only fetches nodes actually
// on the rightmost path; an unvisited left sibling along that path is
// reattached as-is, never faulted in.
func (t *Tree) removeMax(ctx context.Context, l *link) (KV, *link, storage.Cost, error) {
	n, cost, err := t.fetch(ctx, l)
	if err != nil {
		return KV{}, nil, cost, err
	}
	if n.right == nil {
		return n.kv, n.left, cost, nil
	}
	kv, remainder, costR, err := t.removeMax(ctx, n.right)
	cost = cost.Add(costR)
	if err != nil {
		return KV{}, nil, cost, err
	}
	n.right = remainder
	if err := n.recomputeLocal(); err != nil {
		return KV{}, nil, cost, err
	}
	newLink, costB, err := t.rebalance(ctx, n)
	cost = cost.Add(costB)
	return kv, newLink, cost, err
}

// removeMin is removeMax's mirror image over the leftmost path.
func (t *Tree) removeMin(ctx context.Context, l *link) (KV, *link, storage.Cost, error) {
	n, cost, err := t.fetch(ctx, l)
	if err != nil {
		return KV{}, nil, cost, err
	}
	if n.left == nil {
		return n.kv, n.right, cost, nil
	}
	kv, remainder, costR, err := t.removeMin(ctx, n.left)
	cost = cost.Add(costR)
	if err != nil {
		return KV{}, nil, cost, err
	}
	n.left = remainder
	if err := n.recomputeLocal(); err != nil {
		return KV{}, nil, cost, err
	}
	newLink, costB, err := t.rebalance(ctx, n)
	cost = cost.Add(costB)
	return kv, newLink, cost, err
}

// rebalance restores the AVL height invariant (P2) at n, which must already
// have up-to-date heights/aggregate from a just-completed recomputeLocal. A
// single rotation fetches only the immediate child being rotated around; a
// double rotation also fetches that child's inner child. Every other subtree
// stays an unread link on both sides of the rotation.
func (t *Tree) rebalance(ctx context.Context, n *node) (*link, storage.Cost, error) {
	var cost storage.Cost
	bf := n.balanceFactor()

	switch {
	case bf > 1:
		right, rcost, err := t.fetch(ctx, n.right)
		cost = cost.Add(rcost)
		if err != nil {
			return nil, cost, err
		}
		if right.balanceFactor() < 0 {
			newRight, rrcost, err := t.rotateRight(ctx, right)
			cost = cost.Add(rrcost)
			if err != nil {
				return nil, cost, err
			}
			n.right = modifiedLink(newRight)
		}
		newRoot, lcost, err := t.rotateLeft(ctx, n)
		cost = cost.Add(lcost)
		if err != nil {
			return nil, cost, err
		}
		return modifiedLink(newRoot), cost, nil

	case bf < -1:
		left, lcost, err := t.fetch(ctx, n.left)
		cost = cost.Add(lcost)
		if err != nil {
			return nil, cost, err
		}
		if left.balanceFactor() > 0 {
			newLeft, llcost, err := t.rotateLeft(ctx, left)
			cost = cost.Add(llcost)
			if err != nil {
				return nil, cost, err
			}
			n.left = modifiedLink(newLeft)
		}
		newRoot, rcost, err := t.rotateRight(ctx, n)
		cost = cost.Add(rcost)
		if err != nil {
			return nil, cost, err
		}
		return modifiedLink(newRoot), cost, nil

	default:
		return modifiedLink(n), cost, nil
	}
}

// rotateLeft performs a standard AVL left rotation: x's right child y
// becomes the new subtree root, x becomes y's left child, and y's former
// left subtree (never fetched here) becomes x's new right child.
func (t *Tree) rotateLeft(ctx context.Context, x *node) (*node, storage.Cost, error) {
	y, cost, err := t.fetch(ctx, x.right)
	if err != nil {
		return nil, cost, err
	}
	x.right = y.left
	if err := x.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	y.left = modifiedLink(x)
	if err := y.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	return y, cost, nil
}

// rotateRight is rotateLeft's mirror image.
func (t *Tree) rotateRight(ctx context.Context, x *node) (*node, storage.Cost, error) {
	y, cost, err := t.fetch(ctx, x.left)
	if err != nil {
		return nil, cost, err
	}
	x.left = y.right
	if err := x.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	y.right = modifiedLink(x)
	if err := y.recomputeLocal(); err != nil {
		return nil, cost, err
	}
	return y, cost, nil
}
