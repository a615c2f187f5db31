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

// OpKind is the closed set of operations a batch element can carry, per
// spec.md §4.3.1.
type OpKind int

const (
	// OpPut replaces (or inserts) the value at Key, with a zero aggregate
	// contribution (only meaningful for TreeTypeNormal; use OpPutWithFeature
	// for typed trees).
	OpPut OpKind = iota
	// OpPutWithFeature replaces (or inserts) the value at Key and sets this
	// leaf's aggregate contribution to Feature. Feature.Type must equal the
	// tree's TreeType.
	OpPutWithFeature
	// OpPutCombined replaces (or inserts) the value at Key, supplying a
	// precomputed ValueHash to skip rehashing Value (e.g. when the caller
	// already hashed it upstream).
	OpPutCombined
	// OpDelete removes Key if present; a no-op if absent.
	OpDelete
	// OpDeleteOne removes Key if present; a no-op if absent. Distinct from
	// OpDelete only in name, reserved for a future multi-value-per-key
	// extension that this module does not otherwise implement — GroveDB-Go's
	// key space is single-valued, so the two behave identically here.
	OpDeleteOne
	// OpRefreshFeature keeps Key's existing value but replaces its aggregate
	// contribution with Feature, recomputing kv_hash.
	OpRefreshFeature
)

// Op is one batch element: a key plus the operation to apply to it.
type Op struct {
	Kind      OpKind
	Key       []byte
	Value     []byte
	Feature   Aggregate
	ValueHash *hash.Digest
}

// Put returns an OpPut for key/value.
func Put(key, value []byte) Op {
	return Op{Kind: OpPut, Key: key, Value: value}
}

// PutWithFeature returns an OpPutWithFeature for key/value/feature.
func PutWithFeature(key, value []byte, feature Aggregate) Op {
	return Op{Kind: OpPutWithFeature, Key: key, Value: value, Feature: feature}
}

// PutCombined returns an OpPutCombined for key/value, with a precomputed
// value hash.
func PutCombined(key, value []byte, valueHash hash.Digest) Op {
	return Op{Kind: OpPutCombined, Key: key, Value: value, ValueHash: &valueHash}
}

// Delete returns an OpDelete for key.
func Delete(key []byte) Op {
	return Op{Kind: OpDelete, Key: key}
}

// DeleteOne returns an OpDeleteOne for key.
func DeleteOne(key []byte) Op {
	return Op{Kind: OpDeleteOne, Key: key}
}

// RefreshFeature returns an OpRefreshFeature for key/feature.
func RefreshFeature(key []byte, feature Aggregate) Op {
	return Op{Kind: OpRefreshFeature, Key: key, Feature: feature}
}

func (o Op) isDelete() bool {
	return o.Kind == OpDelete || o.Kind == OpDeleteOne
}
