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

package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/google/btree"
)

const memStoreBTreeDegree = 32

// kvItem is the btree.Item stored in a MemStore's data or meta tree.
type kvItem struct {
	key, value []byte
}

func (a kvItem) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(kvItem).key) < 0
}

// MemStore is an in-memory storage.Context/Transaction, ordered by key via
// github.com/google/btree so RawIterate walks keys in byte order without a
// sort pass. It honors read-your-writes (spec.md §9): a MemStore returned by
// BeginTransaction shares no state with its parent until Commit copies its
// buffered writes back in, but reads against the transaction itself always
// see its own prior writes.
type MemStore struct {
	mu   sync.RWMutex
	data *btree.BTree
	meta *btree.BTree

	// parent is non-nil for a transaction's private view; Commit merges back
	// into parent, Rollback discards.
	parent *MemStore
}

// NewMemStore returns an empty, top-level MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		data: btree.New(memStoreBTreeDegree),
		meta: btree.New(memStoreBTreeDegree),
	}
}

func (m *MemStore) Get(_ context.Context, key []byte) ([]byte, Cost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cost := Cost{SeekCount: 1}
	item := m.data.Get(kvItem{key: key})
	if item == nil {
		return nil, cost, nil
	}
	v := item.(kvItem).value
	cost.StorageLoadedBytes = uint64(len(v))
	out := make([]byte, len(v))
	copy(out, v)
	return out, cost, nil
}

func (m *MemStore) Put(_ context.Context, key, value []byte) (Cost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, v := cloneBytes(key), cloneBytes(value)
	m.data.ReplaceOrInsert(kvItem{key: k, value: v})
	return Cost{StorageWrittenBytes: uint64(len(v))}, nil
}

func (m *MemStore) Delete(_ context.Context, key []byte) (Cost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Delete(kvItem{key: key})
	return Cost{SeekCount: 1}, nil
}

func (m *MemStore) GetMeta(_ context.Context, key []byte) ([]byte, Cost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item := m.meta.Get(kvItem{key: key})
	if item == nil {
		return nil, Cost{SeekCount: 1}, nil
	}
	v := item.(kvItem).value
	out := make([]byte, len(v))
	copy(out, v)
	return out, Cost{SeekCount: 1, StorageLoadedBytes: uint64(len(v))}, nil
}

func (m *MemStore) PutMeta(_ context.Context, key, value []byte) (Cost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta.ReplaceOrInsert(kvItem{key: cloneBytes(key), value: cloneBytes(value)})
	return Cost{StorageWrittenBytes: uint64(len(value))}, nil
}

func (m *MemStore) NewBatch() Batch {
	return &memBatch{}
}

type batchOp struct {
	key, value []byte
	del        bool
}

type memBatch struct {
	ops []batchOp
}

func (b *memBatch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: cloneBytes(key), value: cloneBytes(value)})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: cloneBytes(key), del: true})
}

func (m *MemStore) ApplyBatch(ctx context.Context, batch Batch) (Cost, error) {
	b, ok := batch.(*memBatch)
	if !ok {
		return Cost{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var cost Cost
	for _, op := range b.ops {
		if op.del {
			m.data.Delete(kvItem{key: op.key})
			cost.SeekCount++
			continue
		}
		m.data.ReplaceOrInsert(kvItem{key: op.key, value: op.value})
		cost.StorageWrittenBytes += uint64(len(op.value))
	}
	return cost, nil
}

// BeginTransaction returns a private copy-on-write snapshot of m. Writes are
// invisible to m (and to other transactions) until Commit.
func (m *MemStore) BeginTransaction(context.Context) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	glog.V(2).Info("storage: beginning memstore transaction")
	return &MemStore{
		data:   m.data.Clone(),
		meta:   m.meta.Clone(),
		parent: m,
	}, nil
}

// Commit merges the transaction's private view back into its parent. On a
// non-transaction MemStore it does nothing and returns nil.
func (m *MemStore) Commit(context.Context) error {
	if m.parent == nil {
		return nil
	}
	m.parent.mu.Lock()
	defer m.parent.mu.Unlock()
	m.parent.data = m.data
	m.parent.meta = m.meta
	glog.V(2).Info("storage: committed memstore transaction")
	return nil
}

// Rollback discards the transaction's private view. The parent is
// untouched, matching spec.md §5's requirement that no persistent state
// changes before commit.
func (m *MemStore) Rollback(context.Context) error {
	glog.V(2).Info("storage: rolled back memstore transaction")
	return nil
}

type memIterator struct {
	items []kvItem
	pos   int
}

func (m *MemStore) RawIterate(context.Context) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]kvItem, 0, m.data.Len())
	m.data.Ascend(func(it btree.Item) bool {
		items = append(items, it.(kvItem))
		return true
	})
	return &memIterator{items: items}, nil
}

func (it *memIterator) Next() (KV, bool, error) {
	if it.pos >= len(it.items) {
		return KV{}, false, nil
	}
	cur := it.items[it.pos]
	it.pos++
	return KV{Key: cur.key, Value: cur.value}, true, nil
}

func (it *memIterator) Close() error { return nil }

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
