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
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/storage"
)

// openTreeWithKeys builds and commits a tree over db holding keys
// "a".."z"-style single letters, each mapped to its own uppercase value.
func openTreeWithKeys(t *testing.T, treeType merk.TreeType, keys []string) *merk.Tree {
	t.Helper()
	db := storage.NewMemStore()
	tr, _, err := merk.Open(context.Background(), db, nil, treeType)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var ops []merk.Op
	for _, k := range keys {
		if treeType == merk.TreeTypeSum {
			ops = append(ops, merk.PutWithFeature([]byte(k), []byte("v-"+k), merk.Aggregate{Type: merk.TreeTypeSum, Sum: 1}))
		} else {
			ops = append(ops, merk.Put([]byte(k), []byte("v-"+k)))
		}
	}
	sortMerkOps(ops)
	if _, err := tr.Apply(context.Background(), ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := tr.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return tr
}

func sortMerkOps(ops []merk.Op) {
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && string(ops[j].Key) < string(ops[j-1].Key); j-- {
			ops[j], ops[j-1] = ops[j-1], ops[j]
		}
	}
}

// TestGenerateVerifyRoundTrip exercises P4/P5: a proof generated honestly
// over a range query verifies and yields exactly the in-range (key, value)
// pairs, for both traversal directions.
func TestGenerateVerifyRoundTrip(t *testing.T) {
	keys := []string{"b", "d", "f", "h", "j", "l", "n", "p"}
	tr := openTreeWithKeys(t, merk.TreeTypeNormal, keys)
	root, err := tr.RootHash()
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := Query{Items: []QueryItem{RangeInclusive([]byte("d"), []byte("n"))}}

	for _, ltr := range []bool{true, false} {
		ops, results, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: ltr})
		if err != nil {
			t.Fatalf("Generate(LeftToRight=%v): %v", ltr, err)
		}

		wantKeys := []string{"d", "f", "h", "j", "l", "n"}
		if len(results) != len(wantKeys) {
			t.Fatalf("Generate(LeftToRight=%v): got %d results, want %d", ltr, len(results), len(wantKeys))
		}
		for i, k := range wantKeys {
			if string(results[i].Key) != k {
				t.Errorf("Generate(LeftToRight=%v): result[%d].Key = %q, want %q", ltr, i, results[i].Key, k)
			}
		}

		encoded := Encode(ops, merk.TreeTypeNormal)
		decoded, err := Decode(encoded, merk.TreeTypeNormal)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}

		vr, err := Verify(decoded, query, VerifyOptions{ExpectedRoot: root, TreeType: merk.TreeTypeNormal})
		if err != nil {
			t.Fatalf("Verify(LeftToRight=%v): %v", ltr, err)
		}
		if diff := cmp.Diff(results, vr.Results); diff != "" {
			t.Errorf("Verify(LeftToRight=%v) results mismatch (-generate +verify):\n%s", ltr, diff)
		}
	}
}

// TestVerifyRejectsWrongRoot exercises P4's soundness half: a proof checked
// against a root it was not generated for must fail with ReasonRootMismatch.
func TestVerifyRejectsWrongRoot(t *testing.T) {
	keys := []string{"a", "c", "e", "g"}
	tr := openTreeWithKeys(t, merk.TreeTypeNormal, keys)

	query := Query{Items: []QueryItem{RangeFull()}}
	ops, _, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var wrongRoot hash.Digest
	wrongRoot[0] = 0xff

	if _, err := Verify(ops, query, VerifyOptions{ExpectedRoot: wrongRoot, TreeType: merk.TreeTypeNormal}); err == nil {
		t.Fatal("Verify succeeded against a forged root, want error")
	}
}

// TestVerifyRejectsTamperedValue exercises P4: a proof whose leaf value was
// tampered with after generation must fail the hash chain up to the root.
func TestVerifyRejectsTamperedValue(t *testing.T) {
	keys := []string{"a", "c", "e", "g", "i"}
	tr := openTreeWithKeys(t, merk.TreeTypeNormal, keys)
	root, err := tr.RootHash()
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := Query{Items: []QueryItem{RangeFull()}}
	ops, _, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tampered := false
	for i := range ops {
		if ops[i].Kind == OpPush && ops[i].Node.Kind == NodeKV {
			ops[i].Node.Value = append([]byte(nil), ops[i].Node.Value...)
			ops[i].Node.Value[0] ^= 0xff
			tampered = true
			break
		}
	}
	if !tampered {
		t.Fatal("no NodeKV push found to tamper with")
	}

	if _, err := Verify(ops, query, VerifyOptions{ExpectedRoot: root, TreeType: merk.TreeTypeNormal}); err == nil {
		t.Fatal("Verify succeeded over a tampered value, want error")
	}
}

// TestVerifyRejectsCollapsedRequiredSubtree exercises P6: a proof that
// collapses a subtree the query actually needed (hiding whether some key
// exists inside it) must be rejected rather than silently treated as
// absence.
func TestVerifyRejectsCollapsedRequiredSubtree(t *testing.T) {
	keys := []string{"a", "c", "e", "g", "i", "k", "m"}
	tr := openTreeWithKeys(t, merk.TreeTypeNormal, keys)
	root, err := tr.RootHash()
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := Query{Items: []QueryItem{RangeFull()}}
	ops, _, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Replace the first KV push with a Hash push. A KV node carries no Hash,
	// so the pushed digest is the zero value; this test only needs
	// structural rejection, not a matching hash: the point is the
	// completeness check must fire before the hash even matters, which it
	// will since the query covers the whole key space).
	collapsedIdx := -1
	for i := range ops {
		if ops[i].Kind == OpPush && ops[i].Node.Kind == NodeKV {
			collapsedIdx = i
			break
		}
	}
	if collapsedIdx < 0 {
		t.Fatal("no NodeKV push found to collapse")
	}
	ops[collapsedIdx].Node = Node{Kind: NodeHash, Hash: ops[collapsedIdx].Node.Hash}

	if _, err := Verify(ops, query, VerifyOptions{ExpectedRoot: root, TreeType: merk.TreeTypeNormal}); err == nil {
		t.Fatal("Verify succeeded over a proof that collapsed a required subtree, want error")
	}
}

// TestGenerateVerifyAbsentKey exercises P6: querying a key absent from the
// tree yields a proof with no results but still verifies against the real
// root, witnessing that the key genuinely is not present.
func TestGenerateVerifyAbsentKey(t *testing.T) {
	keys := []string{"a", "c", "e", "g", "i"}
	tr := openTreeWithKeys(t, merk.TreeTypeNormal, keys)
	root, err := tr.RootHash()
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := Query{Items: []QueryItem{Key([]byte("b"))}}
	ops, results, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Generate over absent key: got %d results, want 0", len(results))
	}

	vr, err := Verify(ops, query, VerifyOptions{ExpectedRoot: root, TreeType: merk.TreeTypeNormal})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(vr.Results) != 0 {
		t.Fatalf("Verify over absent key: got %d results, want 0", len(vr.Results))
	}
}

// TestGenerateVerifySumTreeAggregates exercises P7 through the proof path:
// a Sum tree's proof carries Feature/SubtreeAggregate fields that round-trip
// through the wire codec and verify.
func TestGenerateVerifySumTreeAggregates(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	tr := openTreeWithKeys(t, merk.TreeTypeSum, keys)
	root, err := tr.RootHash()
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}

	query := Query{Items: []QueryItem{RangeFull()}}
	ops, results, _, err := Generate(context.Background(), tr.Root(), query, GenerateOptions{LeftToRight: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(results) != len(keys) {
		t.Fatalf("Generate: got %d results, want %d", len(results), len(keys))
	}

	encoded := Encode(ops, merk.TreeTypeSum)
	decoded, err := Decode(encoded, merk.TreeTypeSum)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if _, err := Verify(decoded, query, VerifyOptions{ExpectedRoot: root, TreeType: merk.TreeTypeSum}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
