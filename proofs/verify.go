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
	"bytes"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
)

// VerifyOptions parameterizes Verify with the context a proof is checked
// against.
type VerifyOptions struct {
	ExpectedRoot hash.Digest
	TreeType     merk.TreeType
	Limit        *uint64
	Offset       *uint64
}

// VerifyResult is everything Verify recovers from a valid proof.
type VerifyResult struct {
	Results  []Result
	RootHash hash.Digest
}

// synth is the in-memory tree Verify reconstructs by executing a proof's
// operator stream against the two-element stack described in spec.md §4.4.
type synth struct {
	kind      NodeKind
	key       []byte
	value     []byte
	valueHash hash.Digest
	stored    hash.Digest // NodeHash: node_hash; NodeKVHash: kv_hash

	hasAggregate bool
	feature      merk.Aggregate
	subtreeAgg   merk.Aggregate

	left, right *synth
}

// Verify executes ops, checks the reconstructed tree against opts, and
// returns the (key, value) results the query forced in range. It rejects
// per every condition spec.md §4.4's Verification paragraph names: wrong
// final stack arity, wrong merge arity, a node_hash disagreement anywhere
// in the chain up to the root, non-increasing result keys, a subtree the
// query needed that was collapsed instead of shown, and (for typed trees)
// an aggregate that does not fold correctly over a fully visible subtree.
func Verify(ops []Op, query Query, opts VerifyOptions) (VerifyResult, error) {
	vr, err := VerifyUnrooted(ops, query, opts.TreeType)
	if err != nil {
		return VerifyResult{}, err
	}
	if vr.RootHash != opts.ExpectedRoot {
		return VerifyResult{}, groveerrors.NewProofError(groveerrors.ReasonRootMismatch, "computed root %x, want %x", vr.RootHash, opts.ExpectedRoot)
	}
	vr.Results = applyLimitOffset(vr.Results, opts.Limit, opts.Offset)
	return vr, nil
}

// VerifyUnrooted runs every check Verify does except the final comparison
// against a known-good root hash, and returns the root hash it computed
// instead. forest.VerifyComposedProof uses this to verify a chain of
// per-level proofs bottom-up, where only the outermost level's root is
// known in advance (spec.md §4.5's composition rule) — every other level's
// "expected root" is itself a value this function derives.
func VerifyUnrooted(ops []Op, query Query, treeType merk.TreeType) (VerifyResult, error) {
	root, err := execute(ops, treeType)
	if err != nil {
		return VerifyResult{}, err
	}

	rootHash, err := root.nodeHash()
	if err != nil {
		return VerifyResult{}, err
	}

	if treeType != merk.TreeTypeNormal {
		if _, _, err := foldAggregate(root); err != nil {
			return VerifyResult{}, err
		}
	}

	items := Normalize(query.Items)
	var results []Result
	if err := walkCompleteness(root, items, nil, nil, &results); err != nil {
		return VerifyResult{}, err
	}

	for i := 1; i < len(results); i++ {
		if bytes.Compare(results[i-1].Key, results[i].Key) >= 0 {
			return VerifyResult{}, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "results not strictly increasing at index %d", i)
		}
	}

	return VerifyResult{Results: results, RootHash: rootHash}, nil
}

func applyLimitOffset(results []Result, limit, offset *uint64) []Result {
	if offset != nil {
		o := int(*offset)
		if o >= len(results) {
			return nil
		}
		results = results[o:]
	}
	if limit != nil {
		l := int(*limit)
		if l < len(results) {
			results = results[:l]
		}
	}
	return results
}

// execute runs ops against the two-element stack machine and returns the
// single remaining synth, or an error if the stack is malformed or does not
// end unit-sized.
func execute(ops []Op, treeType merk.TreeType) (*synth, error) {
	var stack []*synth

	pop := func() (*synth, error) {
		if len(stack) == 0 {
			return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "stack underflow")
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n, nil
	}

	for _, op := range ops {
		switch op.Kind {
		case OpPush, OpPushInverted:
			stack = append(stack, synthFromNode(op.Node))

		case OpParent, OpParentInverted:
			parent, err := pop()
			if err != nil {
				return nil, err
			}
			child, err := pop()
			if err != nil {
				return nil, err
			}
			if parent.kind == NodeHash {
				return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "Parent op attaches a child to a collapsed Hash node")
			}
			if op.Kind == OpParent {
				parent.left = child
			} else {
				parent.right = child
			}
			stack = append(stack, parent)

		case OpChild, OpChildInverted:
			child, err := pop()
			if err != nil {
				return nil, err
			}
			parent, err := pop()
			if err != nil {
				return nil, err
			}
			if parent.kind == NodeHash {
				return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "Child op attaches a child to a collapsed Hash node")
			}
			if op.Kind == OpChild {
				parent.right = child
			} else {
				parent.left = child
			}
			stack = append(stack, parent)

		default:
			return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "unknown op kind %d", op.Kind)
		}
	}

	if len(stack) != 1 {
		return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "stack has %d elements at end, want 1", len(stack))
	}
	return stack[0], nil
}

func synthFromNode(n Node) *synth {
	return &synth{
		kind:         n.Kind,
		key:          n.Key,
		value:        n.Value,
		valueHash:    n.ValueHash,
		stored:       n.Hash,
		hasAggregate: n.HasAggregate,
		feature:      n.Feature,
		subtreeAgg:   n.SubtreeAggregate,
	}
}

// nodeHash recomputes n's node_hash, recursing into its children.
func (n *synth) nodeHash() (hash.Digest, error) {
	if n.kind == NodeHash {
		return n.stored, nil
	}

	kvHash, err := n.kvHash()
	if err != nil {
		return hash.Digest{}, err
	}
	leftHash, err := childNodeHash(n.left)
	if err != nil {
		return hash.Digest{}, err
	}
	rightHash, err := childNodeHash(n.right)
	if err != nil {
		return hash.Digest{}, err
	}
	var aggEncoding []byte
	if n.hasAggregate {
		aggEncoding = n.subtreeAgg.Encode()
	}
	return hash.NodeHash(kvHash, leftHash, rightHash, aggEncoding), nil
}

func childNodeHash(c *synth) (hash.Digest, error) {
	if c == nil {
		return hash.Null, nil
	}
	return c.nodeHash()
}

func (n *synth) kvHash() (hash.Digest, error) {
	var featureEncoding []byte
	if n.hasAggregate {
		featureEncoding = n.feature.Encode()
	}
	switch n.kind {
	case NodeKVHash:
		return n.stored, nil
	case NodeKVDigest:
		return hash.KVDigestToKVHash(n.key, n.valueHash, featureEncoding), nil
	case NodeKV:
		return hash.KVHash(n.key, hash.ValueHash(n.value), featureEncoding), nil
	default:
		return hash.Digest{}, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "kv_hash requested for node kind %d", n.kind)
	}
}

// foldAggregate recomputes n's subtree aggregate by summing its own feature
// with both children's subtree aggregates, and checks it against n's
// claimed subtreeAgg. complete reports whether this was possible to check at
// all: a collapsed (NodeHash) descendant hides its internal aggregate, so a
// node with a collapsed descendant is trusted via the node_hash chain
// instead (an incorrect aggregate there would require a hash preimage).
func foldAggregate(n *synth) (merk.Aggregate, bool, error) {
	if n.kind == NodeHash {
		return merk.Aggregate{}, false, nil
	}

	sum := n.feature
	complete := true

	if n.left != nil {
		leftAgg, leftComplete, err := foldAggregate(n.left)
		if err != nil {
			return merk.Aggregate{}, false, err
		}
		complete = complete && leftComplete
		if leftComplete {
			sum, err = sum.Add(leftAgg)
			if err != nil {
				return merk.Aggregate{}, false, err
			}
		}
	}
	if n.right != nil {
		rightAgg, rightComplete, err := foldAggregate(n.right)
		if err != nil {
			return merk.Aggregate{}, false, err
		}
		complete = complete && rightComplete
		if rightComplete {
			sum, err = sum.Add(rightAgg)
			if err != nil {
				return merk.Aggregate{}, false, err
			}
		}
	}

	if complete && sum != n.subtreeAgg {
		return merk.Aggregate{}, false, groveerrors.NewProofError(groveerrors.ReasonAggregateMismatch, "node %x: folded aggregate %+v does not match claimed %+v", n.key, sum, n.subtreeAgg)
	}
	return n.subtreeAgg, complete, nil
}

// walkCompleteness re-derives each node's key bounds exactly as Generate
// did, appending every NodeKV result in-order and rejecting a proof that
// collapsed (or withheld the value of) anything the query actually needed.
func walkCompleteness(n *synth, items []QueryItem, low, high *Bound, results *[]Result) error {
	if n.kind == NodeHash {
		if rangeMayOverlap(items, low, high) {
			return groveerrors.NewProofError(groveerrors.ReasonMissingKey, "proof collapsed a subtree the query required")
		}
		return nil
	}

	leftBound := &Bound{Value: n.key, Inclusive: false}
	rightBound := &Bound{Value: n.key, Inclusive: false}

	if n.left != nil {
		if err := walkCompleteness(n.left, items, low, leftBound, results); err != nil {
			return err
		}
	}

	inRange := itemsContain(items, n.key)
	if inRange && n.kind != NodeKV {
		return groveerrors.NewProofError(groveerrors.ReasonMissingKey, "key %x is in range but its value was withheld", n.key)
	}
	if inRange {
		*results = append(*results, Result{Key: n.key, Value: n.value})
	}

	if n.right != nil {
		if err := walkCompleteness(n.right, items, rightBound, high, results); err != nil {
			return err
		}
	}
	return nil
}
