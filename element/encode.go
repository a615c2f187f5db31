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

package element

import (
	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
)

// Encode serializes e per the layout: kind_byte ‖ variant fields ‖
// varint(|flags|) ‖ flags. These are the exact bytes stored as a MerkTree
// leaf's value (spec.md §3's "value bytes ... participate in hashing"), so a
// Tree element's encoding changes whenever its child's root digest changes.
func (e Element) Encode() ([]byte, error) {
	var buf []byte
	buf = append(buf, byte(e.Kind))

	switch e.Kind {
	case KindItem, KindReference:
		buf = hash.AppendVarint(buf, uint64(len(e.Bytes)))
		buf = append(buf, e.Bytes...)

	case KindTree:
		buf = append(buf, byte(e.TreeType))
		buf = appendRootDigest(buf, e.RootDigest)

	case KindSumTree:
		buf = appendRootDigest(buf, e.RootDigest)
		buf = append(buf, hash.EncodeI64(e.Sum)...)

	case KindBigSumTree:
		buf = appendRootDigest(buf, e.RootDigest)
		buf = append(buf, hash.EncodeI128(e.BigSumHi, e.BigSumLo)...)

	case KindCountTree:
		buf = appendRootDigest(buf, e.RootDigest)
		buf = append(buf, hash.EncodeU64(e.Count)...)

	case KindCountSumTree:
		buf = appendRootDigest(buf, e.RootDigest)
		buf = append(buf, hash.EncodeCountSum(e.Count, e.Sum)...)

	case KindProvableCountTree:
		buf = appendRootDigest(buf, e.RootDigest)
		buf = append(buf, hash.EncodeU64(e.Count)...)

	case KindSumItem:
		buf = append(buf, hash.EncodeI64(e.Sum)...)

	default:
		return nil, groveerrors.Wrapf(groveerrors.ErrInvalidInput, "encode: unknown element kind %d", e.Kind)
	}

	buf = hash.AppendVarint(buf, uint64(len(e.Flags)))
	buf = append(buf, e.Flags...)
	return buf, nil
}

func appendRootDigest(buf []byte, digest []byte) []byte {
	if digest == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return append(buf, digest...)
}

// EncodeTree is a convenience wrapper for the forest package: it builds and
// encodes a Tree-like element for treeType in one call.
func EncodeTree(treeType merk.TreeType, rootDigest []byte, flags Flags) ([]byte, error) {
	return NewTree(treeType, rootDigest, flags).Encode()
}
