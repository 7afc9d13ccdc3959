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

// Package witness keeps a live authentication path for every note ever
// committed to the tree. Rather than maintaining the classical incremental
// cursor used by shielded-pool wallets, it recomputes each tracked path
// directly from the tree's own node history on every append; the tree
// already keeps that history, so this stays correct with no extra
// bookkeeping of its own.
package witness

import (
	"sync"

	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/tree"
)

// Witness is a leaf's position together with its current authentication
// path to the tree's root.
type Witness struct {
	Position uint64
	AuthPath [model.Depth]model.Hash
}

// Map tracks the witness of every note position the indexer has ever
// appended to the tree.
type Map struct {
	mu sync.Mutex

	witnesses  map[uint64]Witness
	checkpoint map[uint64]Witness
}

// New creates an empty witness map.
func New() *Map {
	return &Map{
		witnesses:  make(map[uint64]Witness),
		checkpoint: make(map[uint64]Witness),
	}
}

// Size returns the number of positions currently tracked.
func (m *Map) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.witnesses)
}

// Insert starts tracking pos, recording its authentication path as of t's
// current size. It is called once per output, right after the matching
// tree.Append.
func (m *Map) Insert(t *tree.Tree, pos uint64) error {
	path, err := t.AuthPath(pos)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.witnesses[pos] = Witness{Position: pos, AuthPath: path}
	return nil
}

// UpdateAll recomputes the authentication path of every tracked witness
// against t's current state. It is called after every leaf append, so that
// older witnesses stay valid as the tree grows around them.
func (m *Map) UpdateAll(t *tree.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pos, w := range m.witnesses {
		path, err := t.AuthPath(pos)
		if err != nil {
			return err
		}
		w.AuthPath = path
		m.witnesses[pos] = w
	}
	return nil
}

// Get returns the witness tracked for pos, if any.
func (m *Map) Get(pos uint64) (Witness, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.witnesses[pos]
	return w, ok
}

// Checkpoint marks the current set of witnesses as the rollback target.
func (m *Map) Checkpoint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = cloneWitnesses(m.witnesses)
}

// Rollback restores the witnesses captured by the last Checkpoint (or the
// state the map was loaded with), discarding any inserts or updates made
// since. Called in lockstep with tree.Tree.Rollback at the start of every
// block-processing attempt.
func (m *Map) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.witnesses = cloneWitnesses(m.checkpoint)
}

func cloneWitnesses(in map[uint64]Witness) map[uint64]Witness {
	out := make(map[uint64]Witness, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
