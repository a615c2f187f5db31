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

// Package storage defines the collaborator contract that merk.Tree and
// forest.Forest consume for persistence (spec.md §6), plus MemStore, an
// in-memory reference implementation used by this module's own tests and by
// cmd/grovedb-bench. A production RocksDB/MySQL/Spanner-backed engine is an
// external collaborator outside this module's scope (spec.md §1); see
// DESIGN.md for which teacher dependencies that scope cut excludes.
package storage

import (
	"context"

	"lukechampine.com/blake3"
)

// RootKeyMeta is the fixed meta-column suffix a MerkTree's persisted root
// key is stored under, per spec.md §6 ("prefix ‖ \"root_key\"").
const RootKeyMeta = "root_key"

// Prefix derives the fixed-length on-disk prefix for the MerkTree living at
// path, by hashing each segment's length and bytes together. Two distinct
// paths never share a prefix, and the empty path (the forest's root
// MerkTree) gets the empty prefix.
func Prefix(path [][]byte) []byte {
	if len(path) == 0 {
		return nil
	}
	var enc []byte
	for _, seg := range path {
		enc = appendVarint(enc, uint64(len(seg)))
		enc = append(enc, seg...)
	}
	d := blake3.Sum256(enc)
	return d[:]
}

func appendVarint(buf []byte, n uint64) []byte {
	for n >= 0x80 {
		buf = append(buf, byte(n)|0x80)
		n >>= 7
	}
	return append(buf, byte(n))
}

// Cost accumulates the resource counters spec.md §5 requires every
// operation to report. Costs compose additively: Add sums two Costs.
type Cost struct {
	SeekCount            uint64
	StorageLoadedBytes   uint64
	StorageWrittenBytes  uint64
	HashByteCalls        uint64
	HashNodeCalls        uint64
}

// Add returns the element-wise sum of c and other.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		SeekCount:           c.SeekCount + other.SeekCount,
		StorageLoadedBytes:  c.StorageLoadedBytes + other.StorageLoadedBytes,
		StorageWrittenBytes: c.StorageWrittenBytes + other.StorageWrittenBytes,
		HashByteCalls:       c.HashByteCalls + other.HashByteCalls,
		HashNodeCalls:       c.HashNodeCalls + other.HashNodeCalls,
	}
}

// KV is one (key, value) pair as returned by RawIterate.
type KV struct {
	Key, Value []byte
}

// Iterator yields (key, value) pairs in byte order over the data column.
type Iterator interface {
	Next() (KV, bool, error)
	Close() error
}

// Batch bundles deferred writes for later atomic application via a
// Transaction, per spec.md §6's "batch interface".
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
}

// Context is the storage collaborator interface the core consumes: get,
// put, delete, and iterate by byte key, with a separate meta column holding
// each MerkTree's persisted root key. Every call returns a Cost alongside
// its result or error, per spec.md §5/§6.
type Context interface {
	// Get returns the data-column value stored at key, or (nil, cost, nil)
	// if absent.
	Get(ctx context.Context, key []byte) ([]byte, Cost, error)
	// Put writes value to the data column under key.
	Put(ctx context.Context, key, value []byte) (Cost, error)
	// Delete removes key from the data column. Deleting an absent key is
	// not an error; callers needing strict semantics check existence first.
	Delete(ctx context.Context, key []byte) (Cost, error)
	// RawIterate returns an Iterator over the data column in byte order.
	RawIterate(ctx context.Context) (Iterator, error)
	// GetMeta and PutMeta access the meta column (currently only the
	// per-tree root key, under RootKeyMeta).
	GetMeta(ctx context.Context, key []byte) ([]byte, Cost, error)
	PutMeta(ctx context.Context, key, value []byte) (Cost, error)
	// NewBatch returns an empty Batch for deferred writes.
	NewBatch() Batch
	// BeginTransaction starts a transaction that must be committed or rolled
	// back exactly once.
	BeginTransaction(ctx context.Context) (Transaction, error)
}

// Transaction is a Context plus commit/rollback, per spec.md §6. Reads
// within an open transaction must observe its own buffered writes
// (read-your-writes, spec.md §9).
type Transaction interface {
	Context
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// ApplyBatch atomically applies every write buffered in b.
	ApplyBatch(ctx context.Context, b Batch) (Cost, error)
}
