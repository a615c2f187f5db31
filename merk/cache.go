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

import (
	"bytes"

	"github.com/google/btree"
)

const nodeCacheBTreeDegree = 16

// nodeCache is a read-through cache of nodes already faulted in from
// storage.Context during the current apply/commit cycle, keyed by raw key
// bytes and backed by a github.com/google/btree B-tree (ordered, so a future
// range-prefetch over the cache is a simple Ascend, unlike a plain map).
// It never survives past a Commit: committed nodes may have had their
// in-memory subtrees pruned, so a stale cache entry would desync from what
// Tree.fetch would otherwise reload.
type nodeCache struct {
	tree *btree.BTree
}

type cacheItem struct {
	key  []byte
	node *node
}

func (a cacheItem) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(cacheItem).key) < 0
}

func newNodeCache() *nodeCache {
	return &nodeCache{tree: btree.New(nodeCacheBTreeDegree)}
}

func (c *nodeCache) get(key []byte) *node {
	item := c.tree.Get(cacheItem{key: key})
	if item == nil {
		return nil
	}
	return item.(cacheItem).node
}

func (c *nodeCache) put(n *node) {
	c.tree.ReplaceOrInsert(cacheItem{key: n.kv.Key, node: n})
}

func (c *nodeCache) clear() {
	c.tree.Clear(false)
}

func (c *nodeCache) len() int {
	return c.tree.Len()
}
