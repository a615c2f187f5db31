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

// Package element holds the typed value stored at every MerkTree key
// (spec.md §3): opaque items, references, nested-tree declarations, and the
// numeric leaf/aggregate variants that feed a typed tree's FeatureType.
// Element sits between merk and forest — its encoded bytes are exactly what
// merk.KV.Value holds, and forest is the only caller that decodes a Tree
// variant back out to discover a child path segment's TreeType and cached
// root digest.
package element

import (
	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/merk"
)

// Kind is the closed variant tag for an Element, serialized as the first
// byte of its encoding.
type Kind byte

const (
	KindItem Kind = iota
	KindReference
	KindTree
	KindSumItem
	KindSumTree
	KindBigSumTree
	KindCountTree
	KindCountSumTree
	KindProvableCountTree
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "Item"
	case KindReference:
		return "Reference"
	case KindTree:
		return "Tree"
	case KindSumItem:
		return "SumItem"
	case KindSumTree:
		return "SumTree"
	case KindBigSumTree:
		return "BigSumTree"
	case KindCountTree:
		return "CountTree"
	case KindCountSumTree:
		return "CountSumTree"
	case KindProvableCountTree:
		return "ProvableCountTree"
	default:
		return "Unknown"
	}
}

// treeTypeOf maps a typed-tree Kind to the merk.TreeType its child MerkTree
// must be opened with. KindTree itself carries its own explicit TreeType
// field instead (a plain Tree can nest a typed child).
func treeTypeOf(k Kind) (merk.TreeType, bool) {
	switch k {
	case KindSumTree:
		return merk.TreeTypeSum, true
	case KindBigSumTree:
		return merk.TreeTypeBigSum, true
	case KindCountTree:
		return merk.TreeTypeCount, true
	case KindCountSumTree:
		return merk.TreeTypeCountSum, true
	case KindProvableCountTree:
		return merk.TreeTypeProvableCount, true
	default:
		return merk.TreeTypeNormal, false
	}
}

// Flags is an opaque, caller-defined byte string carried by every variant
// per spec.md §3 ("flags?"); this module does not interpret it.
type Flags []byte

// Element is the typed value stored at a MerkTree key. Exactly the fields
// relevant to Kind are meaningful; Encode/Decode enforce this.
type Element struct {
	Kind Kind

	// Item, Reference
	Bytes []byte     // Item's opaque value; Reference's target path, already flattened to bytes by the caller
	Flags Flags

	// Tree and typed-tree variants
	TreeType   merk.TreeType
	RootDigest []byte // 32 bytes, or nil if the child tree has never been committed

	// SumItem and typed-tree aggregate fields
	Sum      int64
	BigSumHi int64
	BigSumLo uint64
	Count    uint64
}

// NewItem returns an Item element.
func NewItem(value []byte, flags Flags) Element {
	return Element{Kind: KindItem, Bytes: value, Flags: flags}
}

// NewReference returns a Reference element pointing at path (already
// flattened to bytes by the caller).
func NewReference(path []byte, flags Flags) Element {
	return Element{Kind: KindReference, Bytes: path, Flags: flags}
}

// NewTree returns a Tree element declaring a nested MerkTree of the given
// type. rootDigest is nil for a not-yet-committed child.
func NewTree(treeType merk.TreeType, rootDigest []byte, flags Flags) Element {
	kind := KindTree
	if treeType != merk.TreeTypeNormal {
		switch treeType {
		case merk.TreeTypeSum:
			kind = KindSumTree
		case merk.TreeTypeBigSum:
			kind = KindBigSumTree
		case merk.TreeTypeCount:
			kind = KindCountTree
		case merk.TreeTypeCountSum:
			kind = KindCountSumTree
		case merk.TreeTypeProvableCount:
			kind = KindProvableCountTree
		}
	}
	return Element{Kind: kind, TreeType: treeType, RootDigest: rootDigest, Flags: flags}
}

// NewSumItem returns a SumItem element.
func NewSumItem(sum int64, flags Flags) Element {
	return Element{Kind: KindSumItem, Sum: sum, Flags: flags}
}

// IsTree reports whether e declares a nested MerkTree (spec.md §3's Tree and
// typed-tree variants).
func (e Element) IsTree() bool {
	switch e.Kind {
	case KindTree, KindSumTree, KindBigSumTree, KindCountTree, KindCountSumTree, KindProvableCountTree:
		return true
	default:
		return false
	}
}

// ChildTreeType returns the TreeType a Tree-like element's nested MerkTree
// must be opened with.
func (e Element) ChildTreeType() merk.TreeType {
	if e.Kind == KindTree {
		return e.TreeType
	}
	tt, _ := treeTypeOf(e.Kind)
	return tt
}

var errNotTreeLike = groveerrors.Wrapf(groveerrors.ErrInvalidInput, "element is not a Tree-like variant")
