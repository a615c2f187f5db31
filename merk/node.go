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
	"encoding/binary"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
)

// node is (KV, left, right, node_hash) per spec.md §3. A node owns its
// links; dropping a node recursively drops any loaded children (in-memory
// only — reference links drop without touching storage, spec.md §4.2).
type node struct {
	kv    KV
	left  *link
	right *link

	treeType TreeType
	// aggregate is this node's own contribution folded with both children's
	// subtree aggregates: kv.Feature + left.aggregate + right.aggregate.
	aggregate Aggregate
	// heights are this node's own children's heights, exposed to the parent
	// via the link that points at this node.
	heights childHeights

	nodeHash      hash.Digest
	nodeHashValid bool
}

func newLeaf(treeType TreeType, kv KV) *node {
	return &node{kv: kv, treeType: treeType, aggregate: kv.Feature}
}

func (n *node) height() int8 {
	return n.heights.height()
}

func (n *node) balanceFactor() int {
	return n.heights.balanceFactor()
}

// leftNode/rightNode panic if the respective link has not been faulted into
// memory; callers (rotate, splice) only ever invoke these on links they just
// fetched or created, so this is an invariant check, not a recoverable path.
func (n *node) leftNode() *node {
	if n.left == nil {
		return nil
	}
	if n.left.node == nil {
		panic("merk: leftNode called on an unfetched link")
	}
	return n.left.node
}

func (n *node) rightNode() *node {
	if n.right == nil {
		return nil
	}
	if n.right.node == nil {
		panic("merk: rightNode called on an unfetched link")
	}
	return n.right.node
}

// recomputeLocal recomputes n.heights and n.aggregate from its current
// children's cached link metadata, and invalidates n.nodeHash. It never
// loads a child; it only reads the height/aggregate a child link already
// carries (computed the last time that child itself was touched).
func (n *node) recomputeLocal() error {
	n.heights = childHeights{Left: linkHeight(n.left), Right: linkHeight(n.right)}

	agg := n.kv.Feature
	var err error
	if n.left != nil {
		agg, err = agg.Add(childAggregate(n.left))
		if err != nil {
			return err
		}
	}
	if n.right != nil {
		agg, err = agg.Add(childAggregate(n.right))
		if err != nil {
			return err
		}
	}
	n.aggregate = agg
	n.nodeHashValid = false
	return nil
}

// childAggregate returns the subtree aggregate associated with a link,
// reading it from the in-memory node if loaded, or from the cached
// persistedAggregate on an unloaded link otherwise (see link.go).
func childAggregate(l *link) Aggregate {
	if l.node != nil {
		return l.node.aggregate
	}
	return l.persistedAggregate
}

// hashDigest returns the node's node_hash, recomputing it (and requiring
// both children's hashes to be known) if it is currently invalid. Returns
// ErrInternal if a child link is Modified and thus has no known hash yet —
// callers must only call this after a commit hash pass, never mid-apply.
func (n *node) hashDigest() (hash.Digest, error) {
	if n.nodeHashValid {
		return n.nodeHash, nil
	}
	leftHash, err := linkDigest(n.left)
	if err != nil {
		return hash.Digest{}, err
	}
	rightHash, err := linkDigest(n.right)
	if err != nil {
		return hash.Digest{}, err
	}
	n.nodeHash = hash.NodeHash(n.kv.KVHash, leftHash, rightHash, n.aggregate.Encode())
	n.nodeHashValid = true
	return n.nodeHash, nil
}

func linkDigest(l *link) (hash.Digest, error) {
	if l == nil {
		return hash.Null, nil
	}
	if l.state == linkModified {
		return hash.Digest{}, groveerrors.Wrapf(groveerrors.ErrInternal, "node_hash requested with a Modified child link still pending commit")
	}
	return l.hash, nil
}

// --- serialization (spec.md §6 on-disk layout) ---
//
// feature_byte ‖ varint(|key|) ‖ key ‖ varint(|value|) ‖ value
//   ‖ left_link? ‖ right_link? ‖ aggregate_fields?
//
// feature_byte is byte(TreeType), which both selects the decoder for
// aggregate_fields and removes the need for a separate version tag.
// aggregate_fields, when TreeType != Normal, is this leaf's own Feature
// encoding immediately followed by this node's subtree Aggregate encoding
// (same shape, concatenated; their fixed length per TreeType makes a
// length prefix unnecessary). Each link header additionally carries its
// child's subtree Aggregate (same fixed-length encoding) alongside its
// child_heights, so that an ancestor whose sibling subtree is never faulted
// in can still fold that subtree's aggregate into its own (I4) without a
// forced load. These two points are this module's resolution of a gap in
// spec.md §6, which names "aggregate_fields" as a single blob and does not
// otherwise say how an aggregate survives a lazy, heights-only link; see
// DESIGN.md.

// MarshalBinary encodes n per the layout above. It does not include the
// node's own node_hash (that lives in the parent's link, or the tree's
// persisted root key for the root), matching spec.md's description of the
// stored value as "the serialization: feature_byte ‖ ... (no self-hash)".
func (n *node) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = append(buf, byte(n.treeType))
	buf = hash.AppendVarint(buf, uint64(len(n.kv.Key)))
	buf = append(buf, n.kv.Key...)
	buf = hash.AppendVarint(buf, uint64(len(n.kv.Value)))
	buf = append(buf, n.kv.Value...)

	buf = appendLinkHeader(buf, n.left, n.treeType)
	buf = appendLinkHeader(buf, n.right, n.treeType)

	if n.treeType != TreeTypeNormal {
		buf = append(buf, n.kv.Feature.Encode()...)
		buf = append(buf, n.aggregate.Encode()...)
	}
	return buf, nil
}

func appendLinkHeader(buf []byte, l *link, treeType TreeType) []byte {
	if l == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	buf = append(buf, l.hash[:]...)
	buf = append(buf, byte(l.heights.Left), byte(l.heights.Right))
	buf = hash.AppendVarint(buf, uint64(len(l.key)))
	buf = append(buf, l.key...)
	if treeType != TreeTypeNormal {
		buf = append(buf, childAggregate(l).Encode()...)
	}
	return buf
}

// UnmarshalBinary decodes n from the layout MarshalBinary produces. The
// decoded left/right links start in the Reference state; their
// persistedAggregate lets the parent's recomputeLocal fold in their
// subtree aggregate without faulting them in.
func (n *node) UnmarshalBinary(data []byte) error {
	r := &byteReader{buf: data}

	treeTypeByte, err := r.readByte()
	if err != nil {
		return corrupt("tree type byte: %v", err)
	}
	n.treeType = TreeType(treeTypeByte)

	key, err := r.readBytesVarint()
	if err != nil {
		return corrupt("key: %v", err)
	}
	value, err := r.readBytesVarint()
	if err != nil {
		return corrupt("value: %v", err)
	}

	left, err := readLinkHeader(r, n.treeType)
	if err != nil {
		return corrupt("left link: %v", err)
	}
	right, err := readLinkHeader(r, n.treeType)
	if err != nil {
		return corrupt("right link: %v", err)
	}

	feature := ZeroAggregate(n.treeType)
	aggregate := ZeroAggregate(n.treeType)
	if n.treeType != TreeTypeNormal {
		featureLen := aggregateByteLen(n.treeType)
		featBytes, err := r.readN(featureLen)
		if err != nil {
			return corrupt("feature: %v", err)
		}
		feature, err = DecodeAggregate(n.treeType, featBytes)
		if err != nil {
			return err
		}
		aggBytes, err := r.readN(featureLen)
		if err != nil {
			return corrupt("aggregate: %v", err)
		}
		aggregate, err = DecodeAggregate(n.treeType, aggBytes)
		if err != nil {
			return err
		}
	}

	n.kv = newKV(key, value, feature, nil)
	n.left = left
	n.right = right
	n.aggregate = aggregate
	n.heights = childHeights{Left: linkHeight(left), Right: linkHeight(right)}
	n.nodeHashValid = false
	return nil
}

func aggregateByteLen(t TreeType) int {
	switch t {
	case TreeTypeNormal:
		return 0
	case TreeTypeSum:
		return 8
	case TreeTypeBigSum:
		return 16
	case TreeTypeCount, TreeTypeProvableCount:
		return 8
	case TreeTypeCountSum:
		return 16
	default:
		return 0
	}
}

func readLinkHeader(r *byteReader, treeType TreeType) (*link, error) {
	flag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		return nil, nil
	}
	hashBytes, err := r.readN(hash.Length)
	if err != nil {
		return nil, err
	}
	lb, err := r.readByte()
	if err != nil {
		return nil, err
	}
	rb, err := r.readByte()
	if err != nil {
		return nil, err
	}
	key, err := r.readBytesVarint()
	if err != nil {
		return nil, err
	}
	aggregate := ZeroAggregate(treeType)
	if treeType != TreeTypeNormal {
		aggBytes, err := r.readN(aggregateByteLen(treeType))
		if err != nil {
			return nil, err
		}
		aggregate, err = DecodeAggregate(treeType, aggBytes)
		if err != nil {
			return nil, err
		}
	}
	l := referenceLink(hash.FromBytes(hashBytes), childHeights{Left: int8(lb), Right: int8(rb)}, key, aggregate)
	return l, nil
}

func corrupt(format string, args ...interface{}) error {
	return groveerrors.Wrapf(groveerrors.ErrCorruptedData, format, args...)
}

// byteReader is a tiny cursor over a decode buffer; it exists so node
// decoding doesn't pull in encoding/gob or a streaming bytes.Reader for what
// is a handful of varint/fixed-length reads.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errShortBuffer
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) readVarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errShortBuffer
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) readBytesVarint() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}

var errShortBuffer = corruptSentinel{}

type corruptSentinel struct{}

func (corruptSentinel) Error() string { return "unexpected end of buffer" }
