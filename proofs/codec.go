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
	"encoding/binary"

	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
)

// Encode serializes an operator stream as varint(len(ops)) followed by each
// op's envelope: a 1-byte opcode, and for Push/PushInverted a Node payload
// (1-byte NodeKind, varint-length-prefixed byte fields, little-endian
// aggregate fields), matching the on-disk layout conventions of spec.md §6.
func Encode(ops []Op, treeType merk.TreeType) []byte {
	var buf []byte
	buf = hash.AppendVarint(buf, uint64(len(ops)))
	for _, op := range ops {
		buf = appendOp(buf, op, treeType)
	}
	return buf
}

func appendOp(buf []byte, op Op, treeType merk.TreeType) []byte {
	buf = append(buf, byte(op.Kind))
	if op.Kind != OpPush && op.Kind != OpPushInverted {
		return buf
	}
	n := op.Node
	buf = append(buf, byte(n.Kind))
	switch n.Kind {
	case NodeHash, NodeKVHash:
		buf = append(buf, n.Hash[:]...)
	case NodeKVDigest:
		buf = hash.AppendVarint(buf, uint64(len(n.Key)))
		buf = append(buf, n.Key...)
		buf = append(buf, n.ValueHash[:]...)
	case NodeKV:
		buf = hash.AppendVarint(buf, uint64(len(n.Key)))
		buf = append(buf, n.Key...)
		buf = hash.AppendVarint(buf, uint64(len(n.Value)))
		buf = append(buf, n.Value...)
	}
	if treeType != merk.TreeTypeNormal && n.Kind != NodeHash {
		if n.HasAggregate {
			buf = append(buf, 1)
			buf = append(buf, n.Feature.Encode()...)
			buf = append(buf, n.SubtreeAggregate.Encode()...)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(data []byte, treeType merk.TreeType) ([]Op, error) {
	r := &opReader{buf: data}
	count, err := r.readVarint()
	if err != nil {
		return nil, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "proof envelope: op count: %v", err)
	}
	ops := make([]Op, 0, count)
	for i := uint64(0); i < count; i++ {
		op, err := r.readOp(treeType)
		if err != nil {
			return nil, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "proof envelope: op %d: %v", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

type opReader struct {
	buf []byte
	pos int
}

func (r *opReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errShortProof
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *opReader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errShortProof
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *opReader) readVarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errShortProof
	}
	r.pos += n
	return v, nil
}

func (r *opReader) readBytesVarint() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}

func (r *opReader) readDigest() (hash.Digest, error) {
	b, err := r.readN(hash.Length)
	if err != nil {
		return hash.Digest{}, err
	}
	return hash.FromBytes(b), nil
}

func (r *opReader) readOp(treeType merk.TreeType) (Op, error) {
	kindByte, err := r.readByte()
	if err != nil {
		return Op{}, err
	}
	kind := OpKind(kindByte)
	if kind != OpPush && kind != OpPushInverted {
		return Op{Kind: kind}, nil
	}

	nodeKindByte, err := r.readByte()
	if err != nil {
		return Op{}, err
	}
	n := Node{Kind: NodeKind(nodeKindByte)}
	switch n.Kind {
	case NodeHash, NodeKVHash:
		d, err := r.readDigest()
		if err != nil {
			return Op{}, err
		}
		n.Hash = d
	case NodeKVDigest:
		key, err := r.readBytesVarint()
		if err != nil {
			return Op{}, err
		}
		vh, err := r.readDigest()
		if err != nil {
			return Op{}, err
		}
		n.Key, n.ValueHash = key, vh
	case NodeKV:
		key, err := r.readBytesVarint()
		if err != nil {
			return Op{}, err
		}
		value, err := r.readBytesVarint()
		if err != nil {
			return Op{}, err
		}
		n.Key, n.Value = key, value
	default:
		return Op{}, groveerrors.Wrapf(groveerrors.ErrCorruptedData, "unknown node kind %d", nodeKindByte)
	}

	if treeType != merk.TreeTypeNormal && n.Kind != NodeHash {
		hasAgg, err := r.readByte()
		if err != nil {
			return Op{}, err
		}
		if hasAgg == 1 {
			aggLen := aggregateByteLen(treeType)
			featBytes, err := r.readN(aggLen)
			if err != nil {
				return Op{}, err
			}
			feature, err := merk.DecodeAggregate(treeType, featBytes)
			if err != nil {
				return Op{}, err
			}
			aggBytes, err := r.readN(aggLen)
			if err != nil {
				return Op{}, err
			}
			subtreeAgg, err := merk.DecodeAggregate(treeType, aggBytes)
			if err != nil {
				return Op{}, err
			}
			n.HasAggregate = true
			n.Feature = feature
			n.SubtreeAggregate = subtreeAgg
		}
	}

	return Op{Kind: kind, Node: n}, nil
}

func aggregateByteLen(t merk.TreeType) int {
	switch t {
	case merk.TreeTypeSum:
		return 8
	case merk.TreeTypeBigSum:
		return 16
	case merk.TreeTypeCount, merk.TreeTypeProvableCount:
		return 8
	case merk.TreeTypeCountSum:
		return 16
	default:
		return 0
	}
}

type shortProofError struct{}

func (shortProofError) Error() string { return "unexpected end of proof buffer" }

var errShortProof = shortProofError{}
