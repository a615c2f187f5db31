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

	"github.com/dashpay/grovedb-go/element"
	"github.com/dashpay/grovedb-go/groveerrors"
	"github.com/dashpay/grovedb-go/hash"
	"github.com/dashpay/grovedb-go/merk"
	"github.com/dashpay/grovedb-go/proofs"
	"github.com/dashpay/grovedb-go/storage"
)

// LevelProof is one path segment's worth of a ComposedProof: the
// intermediate-tree proof for the key that descends into the next level, or
// (at the last level) the caller's own query proof.
type LevelProof struct {
	TreeType merk.TreeType
	Ops      []proofs.Op
	Query    proofs.Query
}

// ComposedProof is a path-indexed chain of per-level sub-proofs, one per
// MerkTree walked from the forest root down to the tree holding the query
// (spec.md §4.5's proof composition rule): level i proves the existence and
// Tree-element value of path[i] inside the tree at path[:i], and the last level proves
// the caller's actual query.
type ComposedProof struct {
	Levels []LevelProof
}

// ProvePath builds a ComposedProof for path/query: one LevelProof per
// intermediate tree (each proving the single key that descends further),
// plus a final LevelProof proving query against the tree at path.
func (f *Forest) ProvePath(ctx context.Context, path [][]byte, query proofs.Query) (ComposedProof, storage.Cost, error) {
	var cost storage.Cost

	chain, c, err := f.openChain(ctx, path)
	cost = cost.Add(c)
	if err != nil {
		return ComposedProof{}, cost, err
	}

	var cp ComposedProof
	for i := 0; i < len(chain)-1; i++ {
		level := chain[i]
		seg := chain[i+1].path[len(chain[i+1].path)-1]
		q := proofs.Query{Items: []proofs.QueryItem{proofs.Key(seg)}}
		ops, _, genCost, err := proofs.Generate(ctx, level.tree.Root(), q, proofs.GenerateOptions{LeftToRight: true})
		cost = cost.Add(genCost)
		if err != nil {
			return ComposedProof{}, cost, err
		}
		cp.Levels = append(cp.Levels, LevelProof{TreeType: level.tree.TreeType(), Ops: ops, Query: q})
	}

	leaf := chain[len(chain)-1]
	ops, _, genCost, err := proofs.Generate(ctx, leaf.tree.Root(), query, proofs.GenerateOptions{LeftToRight: true})
	cost = cost.Add(genCost)
	if err != nil {
		return ComposedProof{}, cost, err
	}
	cp.Levels = append(cp.Levels, LevelProof{TreeType: leaf.tree.TreeType(), Ops: ops, Query: query})

	return cp, cost, nil
}

// VerifyComposedProof checks cp bottom-up against systemRoot, per spec.md
// §4.5: the last level's VerifyUnrooted result is folded against each
// enclosing level in turn, checking at every step that the enclosing level's
// single KV result decodes to a Tree element whose RootDigest equals the
// lower level's independently-computed root hash. Only the outermost level
// is checked against the caller-supplied systemRoot. Returns the leaf
// level's query results.
func VerifyComposedProof(cp ComposedProof, systemRoot hash.Digest) ([]proofs.Result, error) {
	if len(cp.Levels) == 0 {
		return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "composed proof has no levels")
	}

	leafIdx := len(cp.Levels) - 1
	leaf := cp.Levels[leafIdx]
	vr, err := proofs.VerifyUnrooted(leaf.Ops, leaf.Query, leaf.TreeType)
	if err != nil {
		return nil, err
	}
	expectedChildRoot := vr.RootHash
	results := vr.Results

	for i := leafIdx - 1; i >= 0; i-- {
		level := cp.Levels[i]
		lvr, err := proofs.VerifyUnrooted(level.Ops, level.Query, level.TreeType)
		if err != nil {
			return nil, err
		}
		if len(lvr.Results) != 1 {
			return nil, groveerrors.NewProofError(groveerrors.ReasonMissingKey, "level %d: expected exactly one path-segment result, got %d", i, len(lvr.Results))
		}
		el, err := element.Decode(lvr.Results[0].Value)
		if err != nil {
			return nil, err
		}
		if !el.IsTree() {
			return nil, groveerrors.NewProofError(groveerrors.ReasonBadStructure, "level %d: path segment value is not a Tree element", i)
		}
		if !bytes.Equal(el.RootDigest, expectedChildRoot.Bytes()) {
			return nil, groveerrors.NewProofError(groveerrors.ReasonRootMismatch, "level %d: Tree element root digest does not match lower level's computed root", i)
		}
		expectedChildRoot = lvr.RootHash
	}

	if expectedChildRoot != systemRoot {
		return nil, groveerrors.NewProofError(groveerrors.ReasonRootMismatch, "composed proof root %x does not match system root %x", expectedChildRoot, systemRoot)
	}

	return results, nil
}
