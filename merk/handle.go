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
	"context"

	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/storage"
)

// NodeHandle is a read-only view onto one committed node, exported so that
// package proofs can walk a Tree to generate a proof stream without this
// package exposing its internal node/link representation. A handle only
// ever faults in a child when Left/Right is actually called, preserving the
// same laziness Apply relies on.
type NodeHandle struct {
	tree *Tree
	n    *node
}

// Root returns a handle to the tree's root node, or nil if the tree is
// empty.
func (t *Tree) Root() *NodeHandle {
	if t.root == nil {
		return nil
	}
	return &NodeHandle{tree: t, n: t.root}
}

// Key returns the node's key.
func (h *NodeHandle) Key() []byte { return h.n.kv.Key }

// Value returns the node's value.
func (h *NodeHandle) Value() []byte { return h.n.kv.Value }

// KVHash returns the node's kv_hash.
func (h *NodeHandle) KVHash() hash.Digest { return h.n.kv.KVHash }

// ValueHash returns the node's value_hash.
func (h *NodeHandle) ValueHash() hash.Digest { return h.n.kv.ValueHash }

// Feature returns the node's own leaf aggregate contribution.
func (h *NodeHandle) Feature() Aggregate { return h.n.kv.Feature }

// Aggregate returns the node's subtree-wide aggregate total.
func (h *NodeHandle) Aggregate() Aggregate { return h.n.aggregate }

// TreeType returns the tree type this node belongs to.
func (h *NodeHandle) TreeType() TreeType { return h.tree.treeType }

// NodeHash returns the node's node_hash, computing it if necessary.
func (h *NodeHandle) NodeHash() (hash.Digest, error) { return h.n.hashDigest() }

// HasLeft/HasRight report child presence without faulting anything in.
func (h *NodeHandle) HasLeft() bool  { return h.n.left != nil }
func (h *NodeHandle) HasRight() bool { return h.n.right != nil }

// LeftHash/RightHash return a child's node_hash from its link without
// fetching the child itself.
func (h *NodeHandle) LeftHash() (hash.Digest, error)  { return linkDigest(h.n.left) }
func (h *NodeHandle) RightHash() (hash.Digest, error) { return linkDigest(h.n.right) }

// Left faults in and returns a handle to the left child, or nil if absent.
func (h *NodeHandle) Left(ctx context.Context) (*NodeHandle, storage.Cost, error) {
	if h.n.left == nil {
		return nil, storage.Cost{}, nil
	}
	child, cost, err := h.tree.fetch(ctx, h.n.left)
	if err != nil {
		return nil, cost, err
	}
	return &NodeHandle{tree: h.tree, n: child}, cost, nil
}

// Right faults in and returns a handle to the right child, or nil if absent.
func (h *NodeHandle) Right(ctx context.Context) (*NodeHandle, storage.Cost, error) {
	if h.n.right == nil {
		return nil, storage.Cost{}, nil
	}
	child, cost, err := h.tree.fetch(ctx, h.n.right)
	if err != nil {
		return nil, cost, err
	}
	return &NodeHandle{tree: h.tree, n: child}, cost, nil
}
