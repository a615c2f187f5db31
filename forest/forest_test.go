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

package forest

import (
	"bytes"
	"context"
	"testing"

	"github.com/dashpay/grovedb-go/element"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/proofs"
	"github.com/dashpay/grovedb-go/storage"
)

func newTestForest(t *testing.T) (*Forest, storage.Context) {
	t.Helper()
	db := storage.NewMemStore()
	return New(db, Options{}), db
}

// TestApplyCommitRootPersists checks that data applied to the root tree
// and committed is visible after reopening a fresh Forest over the same
// storage.
func TestApplyCommitRootPersists(t *testing.T) {
	ctx := context.Background()
	f, db := newTestForest(t)

	if _, err := f.Apply(ctx, nil, []merk.Op{merk.Put([]byte("a"), []byte("1"))}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	f2 := New(db, Options{})
	v, found, _, err := f2.Get(ctx, nil, []byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || string(v) != "1" {
		t.Fatalf("Get after reopen: got (%q, %v), want (\"1\", true)", v, found)
	}
}

// TestCreateTreeAndNestedApply exercises the path-resolution half of C5:
// creating a nested tree, applying data to it, and reading it back through
// a fresh Forest after commit.
func TestCreateTreeAndNestedApply(t *testing.T) {
	ctx := context.Background()
	f, db := newTestForest(t)

	if _, err := f.CreateTree(ctx, nil, []byte("people"), merk.TreeTypeNormal, nil); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	path := [][]byte{[]byte("people")}
	if _, err := f.Apply(ctx, path, []merk.Op{merk.Put([]byte("alice"), []byte("30"))}); err != nil {
		t.Fatalf("Apply nested: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	f2 := New(db, Options{})
	v, found, _, err := f2.Get(ctx, path, []byte("alice"))
	if err != nil {
		t.Fatalf("Get nested after reopen: %v", err)
	}
	if !found || string(v) != "30" {
		t.Fatalf("Get nested: got (%q, %v), want (\"30\", true)", v, found)
	}
}

// TestApplyMissingPathRejected exercises the ErrCorruptedPath half: applying
// to a path whose segment was never created must fail rather than silently
// auto-vivify a tree.
func TestApplyMissingPathRejected(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForest(t)

	path := [][]byte{[]byte("ghost")}
	if _, err := f.Apply(ctx, path, []merk.Op{merk.Put([]byte("k"), []byte("v"))}); err == nil {
		t.Fatal("Apply over unresolvable path succeeded, want error")
	}
}

// TestApplyThroughNonTreeSegmentRejected exercises ErrCorruptedPath: a path
// segment whose element is a plain Item (not Tree-like) must reject descent.
func TestApplyThroughNonTreeSegmentRejected(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForest(t)

	el := element.NewItem([]byte("just a value"), nil)
	value, err := el.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := f.Apply(ctx, nil, []merk.Op{merk.Put([]byte("leaf"), value)}); err != nil {
		t.Fatalf("Apply root: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	path := [][]byte{[]byte("leaf")}
	if _, err := f.Apply(ctx, path, []merk.Op{merk.Put([]byte("k"), []byte("v"))}); err == nil {
		t.Fatal("Apply through a non-tree segment succeeded, want error")
	}
}

// TestForestReHash is scenario 6: inserting then deleting the same item
// restores the system root hash byte-for-byte, and any intervening mutation
// changes it.
func TestForestReHash(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForest(t)

	path := [][]byte{[]byte("a"), []byte("b")}
	if _, err := f.CreateTree(ctx, nil, []byte("a"), merk.TreeTypeNormal, nil); err != nil {
		t.Fatalf("CreateTree a: %v", err)
	}
	if _, err := f.CreateTree(ctx, [][]byte{[]byte("a")}, []byte("b"), merk.TreeTypeNormal, nil); err != nil {
		t.Fatalf("CreateTree a/b: %v", err)
	}

	var ops []merk.Op
	for i := 0; i < 10; i++ {
		k := []byte{byte('a' + i)}
		ops = append(ops, merk.Put(k, []byte("v")))
	}
	if _, err := f.Apply(ctx, path, ops); err != nil {
		t.Fatalf("Apply 10 items: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	r1, _, err := f.RootHash(ctx)
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	lastKey := []byte{byte('a' + 10)}
	if _, err := f.Apply(ctx, path, []merk.Op{merk.Put(lastKey, []byte("extra"))}); err != nil {
		t.Fatalf("Apply extra: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	r2, _, err := f.RootHash(ctx)
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}
	if bytes.Equal(r1.Bytes(), r2.Bytes()) {
		t.Fatal("root hash unchanged after inserting an extra item")
	}

	if _, err := f.Apply(ctx, path, []merk.Op{merk.Delete(lastKey)}); err != nil {
		t.Fatalf("Apply delete: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	r3, _, err := f.RootHash(ctx)
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}
	if !bytes.Equal(r1.Bytes(), r3.Bytes()) {
		t.Fatalf("root hash after delete = %x, want %x (restored)", r3.Bytes(), r1.Bytes())
	}
}

// TestComposedProofRoundTrip exercises P8: a two-level composed proof (root
// -> "people" -> key) verifies against the system root and returns the
// leaf-level query results.
func TestComposedProofRoundTrip(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForest(t)

	if _, err := f.CreateTree(ctx, nil, []byte("people"), merk.TreeTypeNormal, nil); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	path := [][]byte{[]byte("people")}
	ops := []merk.Op{
		merk.Put([]byte("alice"), []byte("30")),
		merk.Put([]byte("bob"), []byte("25")),
	}
	if _, err := f.Apply(ctx, path, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	systemRoot, _, err := f.RootHash(ctx)
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := proofs.Query{Items: []proofs.QueryItem{proofs.RangeFull()}}
	cp, _, err := f.ProvePath(ctx, path, query)
	if err != nil {
		t.Fatalf("ProvePath: %v", err)
	}
	if len(cp.Levels) != 2 {
		t.Fatalf("ProvePath: got %d levels, want 2", len(cp.Levels))
	}

	results, err := VerifyComposedProof(cp, systemRoot)
	if err != nil {
		t.Fatalf("VerifyComposedProof: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("VerifyComposedProof: got %d results, want 2", len(results))
	}
	if string(results[0].Key) != "alice" || string(results[1].Key) != "bob" {
		t.Fatalf("VerifyComposedProof: unexpected keys %q, %q", results[0].Key, results[1].Key)
	}
}

// TestComposedProofRejectsWrongSystemRoot exercises P8's soundness half.
func TestComposedProofRejectsWrongSystemRoot(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForest(t)

	if _, err := f.CreateTree(ctx, nil, []byte("people"), merk.TreeTypeNormal, nil); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	path := [][]byte{[]byte("people")}
	if _, err := f.Apply(ctx, path, []merk.Op{merk.Put([]byte("alice"), []byte("30"))}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := f.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	query := proofs.Query{Items: []proofs.QueryItem{proofs.RangeFull()}}
	cp, _, err := f.ProvePath(ctx, path, query)
	if err != nil {
		t.Fatalf("ProvePath: %v", err)
	}

	var forged [32]byte
	forged[0] = 0xff
	if _, err := VerifyComposedProof(cp, forged); err == nil {
		t.Fatal("VerifyComposedProof succeeded against a forged system root, want error")
	}
}
