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
	"encoding/binary"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
)

// Decode is the inverse of Encode.
func Decode(data []byte) (Element, error) {
	r := &cursor{buf: data}
	kindByte, err := r.readByte()
	if err != nil {
		return Element{}, corrupt("kind byte: %v", err)
	}
	kind := Kind(kindByte)
	e := Element{Kind: kind}

	switch kind {
	case KindItem, KindReference:
		b, err := r.readBytesVarint()
		if err != nil {
			return Element{}, corrupt("%s bytes: %v", kind, err)
		}
		e.Bytes = b

	case KindTree:
		tt, err := r.readByte()
		if err != nil {
			return Element{}, corrupt("tree type: %v", err)
		}
		e.TreeType = merk.TreeType(tt)
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest

	case KindSumTree:
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest
		e.TreeType = merk.TreeTypeSum
		buf, err := r.readN(8)
		if err != nil {
			return Element{}, corrupt("sum: %v", err)
		}
		e.Sum = hash.DecodeI64(buf)

	case KindBigSumTree:
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest
		e.TreeType = merk.TreeTypeBigSum
		buf, err := r.readN(16)
		if err != nil {
			return Element{}, corrupt("big sum: %v", err)
		}
		e.BigSumHi, e.BigSumLo = hash.DecodeI128(buf)

	case KindCountTree:
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest
		e.TreeType = merk.TreeTypeCount
		buf, err := r.readN(8)
		if err != nil {
			return Element{}, corrupt("count: %v", err)
		}
		e.Count = hash.DecodeU64(buf)

	case KindCountSumTree:
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest
		e.TreeType = merk.TreeTypeCountSum
		buf, err := r.readN(16)
		if err != nil {
			return Element{}, corrupt("count+sum: %v", err)
		}
		e.Count, e.Sum = hash.DecodeCountSum(buf)

	case KindProvableCountTree:
		digest, err := r.readRootDigest()
		if err != nil {
			return Element{}, corrupt("root digest: %v", err)
		}
		e.RootDigest = digest
		e.TreeType = merk.TreeTypeProvableCount
		buf, err := r.readN(8)
		if err != nil {
			return Element{}, corrupt("count: %v", err)
		}
		e.Count = hash.DecodeU64(buf)

	case KindSumItem:
		buf, err := r.readN(8)
		if err != nil {
			return Element{}, corrupt("sum item: %v", err)
		}
		e.Sum = hash.DecodeI64(buf)

	default:
		return Element{}, corrupt("unknown element kind %d", kindByte)
	}

	flags, err := r.readBytesVarint()
	if err != nil {
		return Element{}, corrupt("flags: %v", err)
	}
	if len(flags) > 0 {
		e.Flags = flags
	}
	return e, nil
}

// DecodeTree decodes data as a Tree-like element and returns its child
// TreeType and cached root digest, erroring if data is not one of the
// Tree-like Kinds.
func DecodeTree(data []byte) (merk.TreeType, []byte, error) {
	e, err := Decode(data)
	if err != nil {
		return merk.TreeTypeNormal, nil, err
	}
	if !e.IsTree() {
		return merk.TreeTypeNormal, nil, errNotTreeLike
	}
	return e.ChildTreeType(), e.RootDigest, nil
}

func corrupt(format string, args ...interface{}) error {
	return groveerrors.Wrapf(groveerrors.ErrCorruptedData, format, args...)
}

type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, errShortBuffer
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, errShortBuffer
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) readVarint() (uint64, error) {
	v, n := binary.Uvarint(c.buf[c.pos:])
	if n <= 0 {
		return 0, errShortBuffer
	}
	c.pos += n
	return v, nil
}

func (c *cursor) readBytesVarint() ([]byte, error) {
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	return c.readN(int(n))
}

func (c *cursor) readRootDigest() ([]byte, error) {
	flag, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		return nil, nil
	}
	return c.readN(hash.Length)
}

type shortBufferError struct{}

func (shortBufferError) Error() string { return "unexpected end of buffer" }

var errShortBuffer = shortBufferError{}
