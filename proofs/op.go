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
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
)

// OpKind is the closed set of proof stream operators, per spec.md §4.4.
type OpKind byte

const (
	OpPush OpKind = iota
	OpPushInverted
	OpParent
	OpParentInverted
	OpChild
	OpChildInverted
)

func (k OpKind) String() string {
	switch k {
	case OpPush:
		return "Push"
	case OpPushInverted:
		return "PushInverted"
	case OpParent:
		return "Parent"
	case OpParentInverted:
		return "ParentInverted"
	case OpChild:
		return "Child"
	case OpChildInverted:
		return "ChildInverted"
	default:
		return "Unknown"
	}
}

// NodeKind is the closed set of payloads a Push/PushInverted operator can
// carry, per spec.md §4.4: the minimum-information variant needed to anchor
// or verify one visited tree node.
type NodeKind byte

const (
	// NodeHash collapses an entire subtree to its node_hash.
	NodeHash NodeKind = iota
	// NodeKVHash mentions a node outside the query range by its kv_hash
	// only, withholding both key and value.
	NodeKVHash
	// NodeKVDigest anchors a range boundary: key plus value_hash, without
	// the value itself.
	NodeKVDigest
	// NodeKV carries the full key and value, for an in-range result.
	NodeKV
)

func (k NodeKind) String() string {
	switch k {
	case NodeHash:
		return "Hash"
	case NodeKVHash:
		return "KVHash"
	case NodeKVDigest:
		return "KVDigest"
	case NodeKV:
		return "KV"
	default:
		return "Unknown"
	}
}

// Node is one Push/PushInverted payload. Only the fields matching Kind are
// meaningful.
//
// Feature and SubtreeAggregate are both present whenever the proof's tree
// carries an aggregate (TreeType != Normal) and Kind != NodeHash (a NodeHash
// already commits to its whole subtree, aggregate included, via node_hash
// itself). Feature is this leaf's own FeatureType contribution, required to
// recompute kv_hash for NodeKV/NodeKVDigest (kv_hash folds in
// feature_encoding — spec.md §3). SubtreeAggregate is this node's bottom-up
// subtree total, committed to the stream so verification can reject an
// aggregate mismatch independent of which Kind anchored the node (spec.md
// §4.4 Verification, and the ProvableCountTree Open Question resolution in
// SPEC_FULL.md §9).
type Node struct {
	Kind      NodeKind
	Hash      hash.Digest // NodeHash: node_hash; NodeKVHash: kv_hash
	Key       []byte      // NodeKVDigest, NodeKV
	Value     []byte      // NodeKV
	ValueHash hash.Digest // NodeKVDigest

	HasAggregate     bool
	Feature          merk.Aggregate
	SubtreeAggregate merk.Aggregate
}

// Op is one element of a proof operator stream.
type Op struct {
	Kind OpKind
	Node Node // meaningful only when Kind is OpPush or OpPushInverted
}

func pushOp(n Node) Op         { return Op{Kind: OpPush, Node: n} }
func pushInvertedOp(n Node) Op { return Op{Kind: OpPushInverted, Node: n} }
