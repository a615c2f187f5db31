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

// Package hash computes the domain-separated Blake3 digests that back every
// MerkTree node, key/value pair, and proof anchor in GroveDB-Go. Every call
// site prepends a one-byte-or-more domain tag so that a digest computed in
// one role (a value hash, say) can never collide in meaning with a digest
// computed in another role (a node hash).
package hash

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Length is the size in bytes of every digest this package produces.
const Length = 32

// Digest is a 32-byte Blake3 output.
type Digest [Length]byte

// Null is the all-zero digest, used to stand in for an absent child link.
var Null = Digest{}

// IsNull reports whether d is the all-zero digest.
func (d Digest) IsNull() bool { return d == Null }

// Bytes returns d as a freshly allocated slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Length)
	copy(out, d[:])
	return out
}

// FromBytes copies b into a Digest. b must be exactly Length bytes.
func FromBytes(b []byte) Digest {
	var d Digest
	copy(d[:], b)
	return d
}

var (
	tagValue     = []byte("v")
	tagKV        = []byte("kv")
	tagNode      = []byte("n")
	tagBulkState = []byte("bulk_state")
	tagBulkChain = []byte("bulk_chain")
)

// sum runs a fresh Blake3 hasher over tag followed by every chunk in parts,
// in order, and returns the digest.
func sum(tag []byte, parts ...[]byte) Digest {
	h := blake3.New(Length, nil)
	h.Write(tag)
	for _, p := range parts {
		h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// AppendVarint appends the unsigned LEB128 encoding of n to buf and returns
// the extended slice.
func AppendVarint(buf []byte, n uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	written := binary.PutUvarint(tmp[:], n)
	return append(buf, tmp[:written]...)
}

// Varint returns the unsigned LEB128 encoding of n.
func Varint(n uint64) []byte {
	return AppendVarint(nil, uint64(n))
}

// ValueHash computes H("v" ‖ varint(|value|) ‖ value).
func ValueHash(value []byte) Digest {
	return sum(tagValue, Varint(uint64(len(value))), value)
}

// KVHash computes H("kv" ‖ varint(|key|) ‖ key ‖ value_hash ‖ featureEncoding).
//
// valueHash is typically ValueHash(value); callers that already have the
// value hash (e.g. proof verification working from a KVDigest) should use
// KVDigestToKVHash instead of recomputing ValueHash themselves.
func KVHash(key []byte, valueHash Digest, featureEncoding []byte) Digest {
	return sum(tagKV, Varint(uint64(len(key))), key, valueHash[:], featureEncoding)
}

// KVDigestToKVHash reconstructs a kv_hash from a key and a known value_hash,
// without access to the value itself. Used when verifying a proof's
// KVDigest node, which by design never carries the raw value bytes.
func KVDigestToKVHash(key []byte, valueHash Digest, featureEncoding []byte) Digest {
	return KVHash(key, valueHash, featureEncoding)
}

// NodeHash computes H("n" ‖ kv_hash ‖ left ‖ right ‖ aggregateEncoding),
// substituting Null for an absent child. aggregateEncoding is empty for
// TreeTypeNormal and non-empty for the typed variants (see EncodeI64 et al).
func NodeHash(kvHash, left, right Digest, aggregateEncoding []byte) Digest {
	return sum(tagNode, kvHash[:], left[:], right[:], aggregateEncoding)
}

// BulkStateHash and BulkChainHash are the per-subsystem domain-separated
// digests used by the append-only structures (MMR, dense Merkle, commitment
// tree) that plug into the forest as opaque Element variants (spec.md §9).
// The core never calls these itself; they are exposed so that those
// collaborators, when built against this module, share one hashing
// implementation and domain-tag registry instead of inventing their own.
func BulkStateHash(parts ...[]byte) Digest { return sum(tagBulkState, parts...) }
func BulkChainHash(parts ...[]byte) Digest { return sum(tagBulkChain, parts...) }

// EncodeI64 encodes a signed 64-bit aggregate as two's-complement
// little-endian, for Sum trees.
func EncodeI64(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

// DecodeI64 is the inverse of EncodeI64.
func DecodeI64(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf))
}

// EncodeI128 encodes a signed 128-bit aggregate (represented as high/low
// two's-complement words) as 16 little-endian bytes, for BigSum trees.
func EncodeI128(hi int64, lo uint64) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], lo)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(hi))
	return buf
}

// DecodeI128 is the inverse of EncodeI128.
func DecodeI128(buf []byte) (hi int64, lo uint64) {
	lo = binary.LittleEndian.Uint64(buf[0:8])
	hi = int64(binary.LittleEndian.Uint64(buf[8:16]))
	return hi, lo
}

// EncodeU64 encodes an unsigned 64-bit aggregate as little-endian, for Count
// trees.
func EncodeU64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// DecodeU64 is the inverse of EncodeU64.
func DecodeU64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// EncodeCountSum encodes the (count, sum) pair of a CountSum tree as
// u64_le ‖ i64_le.
func EncodeCountSum(count uint64, sum int64) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], count)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(sum))
	return buf
}

// DecodeCountSum is the inverse of EncodeCountSum.
func DecodeCountSum(buf []byte) (count uint64, sum int64) {
	count = binary.LittleEndian.Uint64(buf[0:8])
	sum = int64(binary.LittleEndian.Uint64(buf[8:16]))
	return count, sum
}
