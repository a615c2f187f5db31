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

// grovedb-bench inserts a batch of random keys into a single MerkTree (or,
// with -nested, into a two-level Forest), commits, generates a full-range
// proof, verifies it, and reports the elapsed times and the final root hash.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/dashpay/grovedb-go/forest"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/proofs"
	"github.com/dashpay/grovedb-go/storage"
)

var (
	numItems = flag.Int("num_items", 10000, "number of random keys to insert")
	keySize  = flag.Int("key_size", 16, "size in bytes of each random key")
	valSize  = flag.Int("value_size", 64, "size in bytes of each random value")
	treeType = flag.String("tree_type", "normal", "tree type: normal, sum, big_sum, count, count_sum, provable_count")
	nested   = flag.Bool("nested", false, "insert through a Forest with one intermediate tree instead of a bare MerkTree")
	seed     = flag.Int64("seed", 1, "PRNG seed, for reproducible runs")
)

func parseTreeType(s string) (merk.TreeType, error) {
	switch s {
	case "normal":
		return merk.TreeTypeNormal, nil
	case "sum":
		return merk.TreeTypeSum, nil
	case "big_sum":
		return merk.TreeTypeBigSum, nil
	case "count":
		return merk.TreeTypeCount, nil
	case "count_sum":
		return merk.TreeTypeCountSum, nil
	case "provable_count":
		return merk.TreeTypeProvableCount, nil
	default:
		return 0, fmt.Errorf("unknown tree_type %q", s)
	}
}

func randomBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func buildOps(r *rand.Rand, tt merk.TreeType) []merk.Op {
	ops := make([]merk.Op, *numItems)
	for i := range ops {
		key := randomBytes(r, *keySize)
		value := randomBytes(r, *valSize)
		if tt == merk.TreeTypeNormal {
			ops[i] = merk.Put(key, value)
		} else {
			ops[i] = merk.PutWithFeature(key, value, merk.Aggregate{Type: tt, Sum: 1, Count: 1})
		}
	}
	sortOps(ops)
	return dedupeOps(ops)
}

func sortOps(ops []merk.Op) {
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && string(ops[j].Key) < string(ops[j-1].Key); j-- {
			ops[j], ops[j-1] = ops[j-1], ops[j]
		}
	}
}

// dedupeOps drops any op whose key collides with its predecessor, since
// Tree.Apply requires strictly increasing keys and random keys occasionally
// collide.
func dedupeOps(ops []merk.Op) []merk.Op {
	out := ops[:0]
	for i, op := range ops {
		if i > 0 && string(op.Key) == string(ops[i-1].Key) {
			continue
		}
		out = append(out, op)
	}
	return out
}

func runFlatTree(ctx context.Context, tt merk.TreeType, ops []merk.Op) error {
	db := storage.NewMemStore()
	tr, _, err := merk.Open(ctx, db, nil, tt)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	start := time.Now()
	if _, err := tr.Apply(ctx, ops); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	applyElapsed := time.Since(start)

	start = time.Now()
	if _, err := tr.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	commitElapsed := time.Since(start)

	root, err := tr.RootHash()
	if err != nil {
		return fmt.Errorf("root hash: %w", err)
	}

	query := proofs.Query{Items: []proofs.QueryItem{proofs.RangeFull()}}
	start = time.Now()
	proofOps, results, _, err := proofs.Generate(ctx, tr.Root(), query, proofs.GenerateOptions{LeftToRight: true})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	generateElapsed := time.Since(start)

	start = time.Now()
	if _, err := proofs.Verify(proofOps, query, proofs.VerifyOptions{ExpectedRoot: root, TreeType: tt}); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	verifyElapsed := time.Since(start)

	fmt.Printf("items=%d tree_type=%s\n", len(ops), *treeType)
	fmt.Printf("  apply:    %v\n", applyElapsed)
	fmt.Printf("  commit:   %v\n", commitElapsed)
	fmt.Printf("  generate: %v (%d results)\n", generateElapsed, len(results))
	fmt.Printf("  verify:   %v\n", verifyElapsed)
	fmt.Printf("  root:     %x\n", root.Bytes())
	return nil
}

func runForest(ctx context.Context, tt merk.TreeType, ops []merk.Op) error {
	db := storage.NewMemStore()
	f := forest.New(db, forest.Options{})

	if _, err := f.CreateTree(ctx, nil, []byte("bench"), tt, nil); err != nil {
		return fmt.Errorf("create nested tree: %w", err)
	}
	path := [][]byte{[]byte("bench")}

	start := time.Now()
	if _, err := f.Apply(ctx, path, ops); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	applyElapsed := time.Since(start)

	start = time.Now()
	if _, err := f.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	commitElapsed := time.Since(start)

	systemRoot, _, err := f.RootHash(ctx)
	if err != nil {
		return fmt.Errorf("root hash: %w", err)
	}

	query := proofs.Query{Items: []proofs.QueryItem{proofs.RangeFull()}}
	start = time.Now()
	cp, _, err := f.ProvePath(ctx, path, query)
	if err != nil {
		return fmt.Errorf("prove path: %w", err)
	}
	generateElapsed := time.Since(start)

	start = time.Now()
	results, err := forest.VerifyComposedProof(cp, systemRoot)
	if err != nil {
		return fmt.Errorf("verify composed proof: %w", err)
	}
	verifyElapsed := time.Since(start)

	fmt.Printf("items=%d tree_type=%s nested=true\n", len(ops), *treeType)
	fmt.Printf("  apply:    %v\n", applyElapsed)
	fmt.Printf("  commit:   %v\n", commitElapsed)
	fmt.Printf("  generate: %v (%d levels, %d results)\n", generateElapsed, len(cp.Levels), len(results))
	fmt.Printf("  verify:   %v\n", verifyElapsed)
	fmt.Printf("  root:     %x\n", systemRoot.Bytes())
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	tt, err := parseTreeType(*treeType)
	if err != nil {
		glog.Exitf("%v", err)
	}

	r := rand.New(rand.NewSource(*seed))
	ops := buildOps(r, tt)
	glog.Infof("built %d ops (after dedup)", len(ops))

	ctx := context.Background()
	if *nested {
		err = runForest(ctx, tt, ops)
	} else {
		err = runFlatTree(ctx, tt, ops)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
