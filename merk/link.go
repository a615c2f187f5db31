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

import "github.com/dashpay/grovedb-go/hash"

// linkState is the closed set of lifecycle states a child link can be in,
// per spec.md §3. Dispatch on state is by value of this tag, never through a
// runtime method table (spec.md §9 "Polymorphism").
type linkState int

const (
	// linkReference: not loaded, known only by hash and key.
	linkReference linkState = iota
	// linkLoaded: fetched into memory, not dirty.
	linkLoaded
	// linkModified: dirtied since last commit; hash unknown until recomputed.
	linkModified
	// linkUncommitted: freshly hashed, not yet written to storage.
	linkUncommitted
)

// childHeights records the heights of a child's own left and right
// subtrees, letting a parent compute that child's height (and rebalance
// around it) without loading it. This is the "child_heights" field spec.md
// §3 attaches to every link state.
type childHeights struct {
	Left, Right int8
}

// height returns 1 + max(Left, Right), or 0 if the child itself is absent
// (represented by a nil *link, not by this type).
func (h childHeights) height() int8 {
	if h.Left > h.Right {
		return h.Left + 1
	}
	return h.Right + 1
}

func (h childHeights) balanceFactor() int {
	return int(h.Right) - int(h.Left)
}

func max8(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

// link is the reference from a parent node to a child. A nil *link means no
// child on that side. Exactly one of the lifecycle states above applies at
// any time; fetching promotes linkReference to linkLoaded in place, applying
// an op to the subtree promotes (Reference|Loaded) to linkModified, and
// commit promotes linkModified to linkUncommitted and then linkLoaded.
type link struct {
	state   linkState
	hash    hash.Digest // valid for Reference, Loaded, Uncommitted (I3)
	heights childHeights
	key     []byte // the child node's key; valid for Reference, Loaded, Uncommitted
	node    *node  // valid for Loaded, Modified, Uncommitted

	// persistedAggregate caches the child's subtree Aggregate as of the last
	// time it was written, so an ancestor that is modified while this child
	// stays untouched (never faulted in) can still fold this aggregate into
	// its own without loading the child. Kept in step with node.aggregate
	// whenever the child is loaded (see childAggregate).
	persistedAggregate Aggregate
}

// referenceLink builds a not-yet-loaded link from persisted metadata.
func referenceLink(h hash.Digest, heights childHeights, key []byte, aggregate Aggregate) *link {
	return &link{state: linkReference, hash: h, heights: heights, key: append([]byte(nil), key...), persistedAggregate: aggregate}
}

// modifiedLink builds a link around a freshly mutated in-memory node. Its
// hash is not yet known; callers must not read l.hash until after a commit
// hash pass promotes it to linkUncommitted.
func modifiedLink(n *node) *link {
	return &link{state: linkModified, heights: n.heights, key: n.kv.Key, node: n, persistedAggregate: n.aggregate}
}

// isModified reports whether the link must never be observed by proof
// generation or any hash-trusting reader (spec.md §4.2).
func (l *link) isModified() bool {
	return l != nil && l.state == linkModified
}

// refresh updates a link's cached heights/key after its node changes without
// changing lifecycle state (used right after a rotation touches a link that
// was already Modified).
func (l *link) refresh() {
	if l == nil || l.node == nil {
		return
	}
	l.heights = l.node.heights
	l.key = l.node.kv.Key
	l.persistedAggregate = l.node.aggregate
}

func linkHeights(l *link) childHeights {
	if l == nil {
		return childHeights{}
	}
	return l.heights
}

func linkHeight(l *link) int8 {
	if l == nil {
		return 0
	}
	return l.heights.height()
}
