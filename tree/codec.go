// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package tree

import "github.com/masp-indexer/chain/model"

// Snapshot is the exported, CBOR-friendly representation of a Tree's full
// state. The storage package encodes and decodes it directly; it is the
// only shape the tree exposes for persistence, so that the on-disk layout
// never depends on the package's internal locking or snapshot bookkeeping.
type Snapshot struct {
	Size     uint64
	Root     model.Hash
	Frontier [model.Depth]model.Hash
	Levels   [model.Depth + 1][]model.Hash
}

// Export captures the tree's current state for persistence.
func (t *Tree) Export() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Size:     t.size,
		Root:     t.root,
		Frontier: t.frontier,
	}
	for l := range t.levels {
		s.Levels[l] = append([]model.Hash(nil), t.levels[l]...)
	}
	return s
}

// Restore builds a tree from a previously exported Snapshot. The tree's
// rollback checkpoint is set to the restored state, matching the state the
// storage gateway most recently committed.
func Restore(s Snapshot) *Tree {
	t := &Tree{
		size:     s.Size,
		root:     s.Root,
		frontier: s.Frontier,
	}
	for l := range s.Levels {
		t.levels[l] = append([]model.Hash(nil), s.Levels[l]...)
	}
	t.checkpoint = t.snapshot()
	return t
}
