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
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/storage"
)

// Tree is one balanced, authenticated subtree (spec.md's MerkTree, C3): a
// fixed TreeType, a storage.Context scoped to this tree's key prefix, and an
// in-memory root that may be partially faulted-in. A forest (package forest)
// owns one Tree per path.
type Tree struct {
	db       storage.Context
	treeType TreeType
	prefix   []byte

	root  *node
	dirty bool // set by Apply, cleared by Commit; gates the root rewrite in Commit (P9)
	cache *nodeCache
}

// Open loads (or newly initializes) the Tree rooted at prefix in db. A Tree
// with no persisted root key is empty: Open never touches the data column
// until Get or Apply is called.
func Open(ctx context.Context, db storage.Context, prefix []byte, treeType TreeType) (*Tree, storage.Cost, error) {
	t := &Tree{db: db, treeType: treeType, prefix: prefix, cache: newNodeCache()}

	rootKeyBytes, cost, err := db.GetMeta(ctx, metaKey(prefix))
	if err != nil {
		return nil, cost, groveerrors.Wrapf(groveerrors.ErrInternal, "open tree: read root key: %v", err)
	}
	if rootKeyBytes == nil {
		glog.V(2).Infof("merk: Open(%x): empty tree", prefix)
		return t, cost, nil
	}

	n, fetchCost, err := t.fetchByKey(ctx, rootKeyBytes)
	if err != nil {
		return nil, cost.Add(fetchCost), err
	}
	t.root = n
	return t, cost.Add(fetchCost), nil
}

func metaKey(prefix []byte) []byte {
	return append(append([]byte(nil), prefix...), []byte(storage.RootKeyMeta)...)
}

func (t *Tree) dataKey(key []byte) []byte {
	return append(append([]byte(nil), t.prefix...), key...)
}

// IsEmpty reports whether the tree currently holds no keys.
func (t *Tree) IsEmpty() bool {
	return t.root == nil
}

// RootHash returns the tree's node_hash at its root, or the null digest if
// the tree is empty. Returns ErrInternal if the tree has pending Modified
// links (call Commit first).
func (t *Tree) RootHash() (hash.Digest, error) {
	if t.root == nil {
		return hash.Null, nil
	}
	return t.root.hashDigest()
}

// RootKey returns the root node's key, or nil if the tree is empty.
func (t *Tree) RootKey() []byte {
	if t.root == nil {
		return nil
	}
	return t.root.kv.Key
}

// TreeType returns the fixed aggregate type this tree was opened with.
func (t *Tree) TreeType() TreeType {
	return t.treeType
}

// RootAggregate returns the tree's root subtree aggregate, or treeType's
// zero value if the tree is empty.
func (t *Tree) RootAggregate() Aggregate {
	if t.root == nil {
		return ZeroAggregate(t.treeType)
	}
	return t.root.aggregate
}

// Get returns the value stored at key, or (nil, false) if absent.
func (t *Tree) Get(ctx context.Context, key []byte) ([]byte, bool, storage.Cost, error) {
	var cost storage.Cost
	cur := t.root
	for cur != nil {
		cmp := bytes.Compare(key, cur.kv.Key)
		if cmp == 0 {
			return cur.kv.Value, true, cost, nil
		}
		var l *link
		if cmp < 0 {
			l = cur.left
		} else {
			l = cur.right
		}
		if l == nil {
			return nil, false, cost, nil
		}
		child, childCost, err := t.fetch(ctx, l)
		cost = cost.Add(childCost)
		if err != nil {
			return nil, false, cost, err
		}
		cur = child
	}
	return nil, false, cost, nil
}

// fetch loads l.node if not already resident, faulting it in from storage
// and caching it in t.cache for the remainder of the current operation.
func (t *Tree) fetch(ctx context.Context, l *link) (*node, storage.Cost, error) {
	if l.node != nil {
		return l.node, storage.Cost{}, nil
	}
	n, cost, err := t.fetchByKey(ctx, l.key)
	if err != nil {
		return nil, cost, err
	}
	l.node = n
	l.state = linkLoaded
	return n, cost, nil
}

func (t *Tree) fetchByKey(ctx context.Context, key []byte) (*node, storage.Cost, error) {
	if cached := t.cache.get(key); cached != nil {
		return cached, storage.Cost{}, nil
	}
	raw, cost, err := t.db.Get(ctx, t.dataKey(key))
	if err != nil {
		return nil, cost, groveerrors.Wrapf(groveerrors.ErrInternal, "fetch %x: %v", key, err)
	}
	if raw == nil {
		return nil, cost, groveerrors.Wrapf(groveerrors.ErrCorruptedPath, "dangling link to missing key %x", key)
	}
	cost.HashByteCalls += uint64(len(raw))
	n := &node{}
	if err := n.UnmarshalBinary(raw); err != nil {
		return nil, cost, err
	}
	n.nodeHashValid = false
	t.cache.put(n)
	return n, cost, nil
}

// Apply applies a batch of Ops to the tree in one pass. ops must be sorted
// by Key, strictly increasing, with no duplicate keys (spec.md §4.3's batch
// precondition); violating this returns ErrInvalidInput without mutating the
// tree.
func (t *Tree) Apply(ctx context.Context, ops []Op) (storage.Cost, error) {
	if err := validateBatch(ops); err != nil {
		return storage.Cost{}, err
	}
	if len(ops) == 0 {
		return storage.Cost{}, nil
	}

	var rootLink *link
	if t.root != nil {
		rootLink = &link{state: linkLoaded, node: t.root}
	}

	newLink, cost, err := t.applyAt(ctx, rootLink, ops)
	if err != nil {
		return cost, err
	}

	if newLink == nil {
		t.root = nil
	} else {
		n, fetchCost, err := t.fetch(ctx, newLink)
		cost = cost.Add(fetchCost)
		if err != nil {
			return cost, err
		}
		t.root = n
	}
	t.dirty = true
	return cost, nil
}

func validateBatch(ops []Op) error {
	if !sort.SliceIsSorted(ops, func(i, j int) bool { return bytes.Compare(ops[i].Key, ops[j].Key) < 0 }) {
		return groveerrors.Wrapf(groveerrors.ErrInvalidInput, "batch keys not sorted strictly increasing")
	}
	for i := 1; i < len(ops); i++ {
		if bytes.Equal(ops[i-1].Key, ops[i].Key) {
			return groveerrors.Wrapf(groveerrors.ErrInvalidInput, "batch contains duplicate key %x", ops[i].Key)
		}
	}
	return nil
}

// Commit walks every Modified link bottom-up, recomputing node hashes,
// writing each dirty node to storage, and persisting the new root key. It is
// idempotent: committing a tree with nothing dirty since the last Commit does
// no writes at all and returns a zero storage.Cost (P9).
func (t *Tree) Commit(ctx context.Context) (storage.Cost, error) {
	var cost storage.Cost
	if !t.dirty {
		return cost, nil
	}

	if t.root != nil {
		c, err := t.commitAt(ctx, t.root)
		cost = cost.Add(c)
		if err != nil {
			return cost, err
		}
	}

	var rootKey []byte
	if t.root != nil {
		rootKey = t.root.kv.Key
	}
	c, err := t.db.PutMeta(ctx, metaKey(t.prefix), rootKey)
	cost = cost.Add(c)
	if err != nil {
		return cost, groveerrors.Wrapf(groveerrors.ErrInternal, "commit: write root key: %v", err)
	}
	t.cache.clear()
	t.dirty = false
	return cost, nil
}

// commitAt recursively commits n's Modified children before n itself, so
// that by the time n's own node_hash is computed both children links carry a
// valid, persisted hash (I3).
func (t *Tree) commitAt(ctx context.Context, n *node) (storage.Cost, error) {
	var cost storage.Cost
	for _, l := range []*link{n.left, n.right} {
		if l == nil {
			continue
		}
		if l.state == linkModified {
			c, err := t.commitAt(ctx, l.node)
			cost = cost.Add(c)
			if err != nil {
				return cost, err
			}
			h, err := l.node.hashDigest()
			if err != nil {
				return cost, err
			}
			l.hash = h
			l.refresh()
			l.state = linkUncommitted
		}
	}

	if _, err := n.hashDigest(); err != nil {
		return cost, err
	}

	raw, err := n.MarshalBinary()
	if err != nil {
		return cost, err
	}
	c, err := t.db.Put(ctx, t.dataKey(n.kv.Key), raw)
	cost = cost.Add(c)
	cost.HashNodeCalls++
	if err != nil {
		return cost, groveerrors.Wrapf(groveerrors.ErrInternal, "commit: write node %x: %v", n.kv.Key, err)
	}

	for _, l := range []*link{n.left, n.right} {
		if l != nil && l.state == linkUncommitted {
			l.state = linkLoaded
		}
	}
	return cost, nil
}

func (t *Tree) String() string {
	if t.root == nil {
		return fmt.Sprintf("Tree{prefix:%x, empty}", t.prefix)
	}
	return fmt.Sprintf("Tree{prefix:%x, root:%x}", t.prefix, t.root.kv.Key)
}
