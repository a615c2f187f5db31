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

// KV is the in-node record of one key/value pair, per spec.md §3. A node
// owns its KV exclusively; nothing else mutates it in place once computed.
type KV struct {
	Key       []byte
	Value     []byte
	Feature   Aggregate // this leaf's own contribution to the tree's aggregate
	ValueHash hash.Digest
	KVHash    hash.Digest
}

// newKV builds a KV from scratch, hashing value unless valueHash is already
// known (PutCombined supplies it to skip a redundant hash pass).
func newKV(key, value []byte, feature Aggregate, valueHash *hash.Digest) KV {
	vh := hash.ValueHash(value)
	if valueHash != nil {
		vh = *valueHash
	}
	return KV{
		Key:       key,
		Value:     value,
		Feature:   feature,
		ValueHash: vh,
		KVHash:    hash.KVHash(key, vh, feature.Encode()),
	}
}
