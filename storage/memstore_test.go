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
	"context"
	"testing"
)

func TestMemStoreGetPutDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if v, _, err := m.Get(ctx, []byte("a")); err != nil || v != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", v, err)
	}
	if _, err := m.Put(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, _, err := m.Get(ctx, []byte("a"))
	if err != nil || string(v) != "1" {
		t.Fatalf("Get after Put = (%s, %v), want (1, nil)", v, err)
	}
	if _, err := m.Delete(ctx, []byte("a")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v, _, _ := m.Get(ctx, []byte("a")); v != nil {
		t.Fatalf("Get after Delete = %v, want nil", v)
	}
}

func TestMemStoreIterateByteOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	for _, k := range []string{"banana", "apple", "cherry"} {
		if _, err := m.Put(ctx, []byte(k), []byte(k)); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	it, err := m.RawIterate(ctx)
	if err != nil {
		t.Fatalf("RawIterate: %v", err)
	}
	var got []string
	for {
		kv, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, string(kv.Key))
	}
	want := []string{"apple", "banana", "cherry"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemStoreTransactionIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	if _, err := m.Put(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	txn, err := m.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if _, err := txn.Put(ctx, []byte("a"), []byte("2")); err != nil {
		t.Fatalf("txn Put: %v", err)
	}

	// Read-your-writes: the open transaction sees its own write.
	if v, _, _ := txn.Get(ctx, []byte("a")); string(v) != "2" {
		t.Fatalf("txn Get = %s, want 2", v)
	}
	// The parent is untouched until Commit.
	if v, _, _ := m.Get(ctx, []byte("a")); string(v) != "1" {
		t.Fatalf("parent Get before commit = %s, want 1", v)
	}

	if err := txn.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v, _, _ := m.Get(ctx, []byte("a")); string(v) != "2" {
		t.Fatalf("parent Get after commit = %s, want 2", v)
	}
}

func TestMemStoreRollbackLeavesParentUntouched(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	if _, err := m.Put(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	txn, err := m.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if _, err := txn.Put(ctx, []byte("a"), []byte("2")); err != nil {
		t.Fatalf("txn Put: %v", err)
	}
	if err := txn.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if v, _, _ := m.Get(ctx, []byte("a")); string(v) != "1" {
		t.Fatalf("parent Get after rollback = %s, want 1", v)
	}
}

func TestMemStoreMetaColumn(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	if _, err := m.PutMeta(ctx, []byte(RootKeyMeta), []byte("root-key-1")); err != nil {
		t.Fatalf("PutMeta: %v", err)
	}
	v, _, err := m.GetMeta(ctx, []byte(RootKeyMeta))
	if err != nil || string(v) != "root-key-1" {
		t.Fatalf("GetMeta = (%s, %v), want (root-key-1, nil)", v, err)
	}
	// Meta and data columns must not alias.
	if v, _, _ := m.Get(ctx, []byte(RootKeyMeta)); v != nil {
		t.Fatalf("Get leaked meta column: %v", v)
	}
}

func TestPrefixDistinctForDistinctPaths(t *testing.T) {
	p1 := Prefix([][]byte{[]byte("a"), []byte("b")})
	p2 := Prefix([][]byte{[]byte("a"), []byte("bc")})
	if string(p1) == string(p2) {
		t.Fatalf("Prefix collided for distinct paths: %x == %x", p1, p2)
	}
	if len(Prefix(nil)) != 0 {
		t.Fatalf("Prefix(nil) should be empty for the root tree")
	}
}
