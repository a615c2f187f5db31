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

// Package forest is the path-indexed collection of MerkTrees (spec.md's C5):
// path resolution, cross-tree batch application with deepest-first commit
// propagation, and composed proof generation/verification (spec.md §4.5,
// §8 P8).
package forest

import (
	"bytes"
	"context"
	"sort"

	"github.com/golang/glog"

	"github.com/dashpay/grovedb-go/element"
	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/internal/telemetry"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/storage"
)

// Options configures a Forest. The zero value is the default: a Normal-type
// root MerkTree, matching the teacher's plain-struct, no-external-config-framework
// construction convention (SPEC_FULL.md §5.3).
type Options struct {
	// RootTreeType overrides the TreeType the implicit root MerkTree (path
	// []) is opened with. Zero value is TreeTypeNormal.
	RootTreeType merk.TreeType
}

// treeEntry is one opened MerkTree plus the bookkeeping Commit needs to
// splice its new root back into its parent.
type treeEntry struct {
	path  [][]byte
	tree  *merk.Tree
	flags element.Flags
}

// Forest is a mapping path -> MerkTree (spec.md §4.5), backed by a single
// storage.Context shared by every tree at a distinct key prefix
// (storage.Prefix).
type Forest struct {
	store storage.Context
	opts  Options

	trees   map[string]*treeEntry
	touched map[string]bool
}

// New returns a Forest over store. The root MerkTree is opened lazily, on
// first path resolution.
func New(store storage.Context, opts Options) *Forest {
	return &Forest{
		store:   store,
		opts:    opts,
		trees:   make(map[string]*treeEntry),
		touched: make(map[string]bool),
	}
}

func pathKey(path [][]byte) string {
	return string(storage.Prefix(path))
}

func clonePath(path [][]byte) [][]byte {
	out := make([][]byte, len(path))
	copy(out, path)
	return out
}

// openAt returns the cached treeEntry for path, opening it from storage if
// this is the first time this Forest has touched it.
func (f *Forest) openAt(ctx context.Context, path [][]byte, treeType merk.TreeType, flags element.Flags) (*treeEntry, storage.Cost, error) {
	key := pathKey(path)
	if e, ok := f.trees[key]; ok {
		return e, storage.Cost{}, nil
	}
	tr, cost, err := merk.Open(ctx, f.store, storage.Prefix(path), treeType)
	if err != nil {
		return nil, cost, err
	}
	e := &treeEntry{path: clonePath(path), tree: tr, flags: flags}
	f.trees[key] = e
	glog.V(1).Infof("forest: opened tree at path %x", path)
	return e, cost, nil
}

// openChain resolves path from the root MerkTree down, opening (and
// caching) every intermediate tree. Every hop's segment must already be a
// Tree-like element in its parent; forest never auto-vivifies an
// intermediate tree on a plain read or data Apply (spec.md §4.5: only
// CreateTree's explicit Tree-element insert creates one).
func (f *Forest) openChain(ctx context.Context, path [][]byte) ([]*treeEntry, storage.Cost, error) {
	var cost storage.Cost

	root, c, err := f.openAt(ctx, nil, f.opts.RootTreeType, nil)
	cost = cost.Add(c)
	if err != nil {
		return nil, cost, err
	}
	chain := []*treeEntry{root}
	cur := root

	for i, seg := range path {
		val, found, c, err := cur.tree.Get(ctx, seg)
		cost = cost.Add(c)
		if err != nil {
			return nil, cost, err
		}
		if !found {
			return nil, cost, groveerrors.Wrapf(groveerrors.ErrCorruptedPath, "path segment %d (%x) does not exist", i, seg)
		}
		el, err := element.Decode(val)
		if err != nil {
			return nil, cost, err
		}
		if !el.IsTree() {
			return nil, cost, groveerrors.Wrapf(groveerrors.ErrCorruptedPath, "path segment %d (%x) is not a nested tree", i, seg)
		}

		childPath := append(clonePath(path[:i]), seg)
		child, c, err := f.openAt(ctx, childPath, el.ChildTreeType(), el.Flags)
		cost = cost.Add(c)
		if err != nil {
			return nil, cost, err
		}
		if !child.tree.IsEmpty() && el.RootDigest != nil {
			gotHash, err := child.tree.RootHash()
			if err != nil {
				return nil, cost, err
			}
			if !bytes.Equal(gotHash.Bytes(), el.RootDigest) {
				return nil, cost, groveerrors.Wrapf(groveerrors.ErrCorruptedPath, "path segment %d (%x): stored root digest does not match opened tree", i, seg)
			}
		}

		chain = append(chain, child)
		cur = child
	}
	return chain, cost, nil
}

func (f *Forest) markTouched(chain []*treeEntry) {
	for _, e := range chain {
		f.touched[pathKey(e.path)] = true
	}
}

// Get reads key from the MerkTree at path.
func (f *Forest) Get(ctx context.Context, path [][]byte, key []byte) ([]byte, bool, storage.Cost, error) {
	chain, cost, err := f.openChain(ctx, path)
	if err != nil {
		return nil, false, cost, err
	}
	leaf := chain[len(chain)-1]
	v, found, c, err := leaf.tree.Get(ctx, key)
	cost = cost.Add(c)
	return v, found, cost, err
}

// Apply applies ops to the MerkTree at path. path must already resolve
// (every intermediate segment an existing Tree-like element); use
// CreateTree to add a new nested tree first.
func (f *Forest) Apply(ctx context.Context, path [][]byte, ops []merk.Op) (cost storage.Cost, err error) {
	ctx, done := telemetry.StartSpan(ctx, telemetry.OpPut)
	defer func() { done(err); telemetry.ObserveCost(telemetry.OpPut, cost) }()

	chain, c0, err := f.openChain(ctx, path)
	cost = cost.Add(c0)
	if err != nil {
		return cost, err
	}
	leaf := chain[len(chain)-1]
	c, err := leaf.tree.Apply(ctx, ops)
	cost = cost.Add(c)
	if err != nil {
		return cost, err
	}
	f.markTouched(chain)
	return cost, nil
}

// CreateTree inserts a new, empty nested MerkTree of treeType at
// path+[seg], by splicing a Tree element with no root digest into the
// parent tree at path. It is the only way a new intermediate tree comes
// into existence (spec.md §4.5).
func (f *Forest) CreateTree(ctx context.Context, path [][]byte, seg []byte, treeType merk.TreeType, flags element.Flags) (storage.Cost, error) {
	chain, cost, err := f.openChain(ctx, path)
	if err != nil {
		return cost, err
	}
	parent := chain[len(chain)-1]

	childPath := append(clonePath(path), seg)
	if _, exists := f.trees[pathKey(childPath)]; exists {
		return cost, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "tree already open at path segment %x", seg)
	}
	if _, found, c, err := parent.tree.Get(ctx, seg); err != nil {
		return cost.Add(c), err
	} else if found {
		return cost.Add(c), groveerrors.Wrapf(groveerrors.ErrInvalidInput, "key %x already exists at this path", seg)
	}

	child, c, err := f.openAt(ctx, childPath, treeType, flags)
	cost = cost.Add(c)
	if err != nil {
		return cost, err
	}

	el := element.NewTree(treeType, nil, flags)
	value, err := el.Encode()
	if err != nil {
		return cost, err
	}
	c, err = parent.tree.Apply(ctx, []merk.Op{merk.Put(seg, value)})
	cost = cost.Add(c)
	if err != nil {
		return cost, err
	}

	chain = append(chain, child)
	f.markTouched(chain)
	return cost, nil
}

// RootHash returns the system root hash: the root MerkTree's root hash.
func (f *Forest) RootHash(ctx context.Context) (hash.Digest, storage.Cost, error) {
	root, cost, err := f.openAt(ctx, nil, f.opts.RootTreeType, nil)
	if err != nil {
		return hash.Digest{}, cost, err
	}
	h, err := root.tree.RootHash()
	return h, cost, err
}

// buildTreeElement builds the Tree-like element a committed tree's parent
// should carry: its TreeType, root digest (nil if empty), flags, and
// whichever aggregate fields TreeType calls for.
func buildTreeElement(treeType merk.TreeType, rootDigest []byte, agg merk.Aggregate, flags element.Flags) element.Element {
	el := element.NewTree(treeType, rootDigest, flags)
	switch treeType {
	case merk.TreeTypeSum:
		el.Sum = agg.Sum
	case merk.TreeTypeBigSum:
		el.BigSumHi, el.BigSumLo = agg.BigSumHi, agg.BigSumLo
	case merk.TreeTypeCount, merk.TreeTypeProvableCount:
		el.Count = agg.Count
	case merk.TreeTypeCountSum:
		el.Count, el.Sum = agg.Count, agg.Sum
	}
	return el
}

// touchedDeepestFirst returns the touched tree keys ordered by path depth,
// deepest first, per spec.md §4.5 step 1.
func (f *Forest) touchedDeepestFirst() []string {
	keys := make([]string, 0, len(f.touched))
	for k := range f.touched {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return len(f.trees[keys[i]].path) > len(f.trees[keys[j]].path)
	})
	return keys
}

// Commit commits every MerkTree touched since the last Commit, deepest
// first, splicing each tree's new root into its parent's Tree element
// before the parent itself is committed (spec.md §4.5 steps 1-4). It is
// idempotent: calling Commit with nothing touched does no storage writes
// (P9).
func (f *Forest) Commit(ctx context.Context) (cost storage.Cost, err error) {
	ctx, done := telemetry.StartSpan(ctx, telemetry.OpCommit)
	defer func() { done(err); telemetry.ObserveCost(telemetry.OpCommit, cost) }()

	order := f.touchedDeepestFirst()

	for _, key := range order {
		e := f.trees[key]
		c, err := e.tree.Commit(ctx)
		cost = cost.Add(c)
		if err != nil {
			return cost, err
		}
		glog.V(1).Infof("forest: committed tree at path %x", e.path)

		if len(e.path) == 0 {
			continue
		}

		parentPath := e.path[:len(e.path)-1]
		parentKey := pathKey(parentPath)
		parent, ok := f.trees[parentKey]
		if !ok {
			return cost, groveerrors.Wrapf(groveerrors.ErrInternal, "commit: parent of %x not open", e.path)
		}

		var digest []byte
		if !e.tree.IsEmpty() {
			h, err := e.tree.RootHash()
			if err != nil {
				return cost, err
			}
			digest = h.Bytes()
		}
		el := buildTreeElement(e.tree.TreeType(), digest, e.tree.RootAggregate(), e.flags)
		value, err := el.Encode()
		if err != nil {
			return cost, err
		}

		seg := e.path[len(e.path)-1]
		c, err = parent.tree.Apply(ctx, []merk.Op{merk.Put(seg, value)})
		cost = cost.Add(c)
		if err != nil {
			return cost, err
		}
	}

	f.touched = make(map[string]bool)
	return cost, nil
}
