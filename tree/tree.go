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

// Package tree implements the incremental, append-only Merkle commitment
// tree that accumulates every shielded output note ever produced. It keeps
// a frontier of pending nodes for O(depth) appends, plus the in-memory
// checkpoint/rollback the indexer's retry loop depends on, and the
// per-level node history that lets the witness map derive authentication
// paths directly from the tree instead of maintaining its own cursor state.
package tree

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/masp-indexer/chain/model"
)

// ErrFull is returned by Append once the tree has reached its maximum
// capacity of 2^Depth leaves.
var ErrFull = errors.New("commitment tree is full")

const (
	domainLeaf = byte(0x00)
	domainNode = byte(0x01)
)

// emptyHash[l] is the canonical hash of an empty subtree of depth l (l=0 is
// an empty leaf).
var emptyHash [model.Depth + 1]model.Hash

func init() {
	emptyHash[0] = hashLeafBytes(model.Hash{})
	for l := 1; l <= model.Depth; l++ {
		emptyHash[l] = hashNode(emptyHash[l-1], emptyHash[l-1])
	}
}

func hashLeafBytes(commitment model.Hash) model.Hash {
	h := sha256.New()
	h.Write([]byte{domainLeaf})
	h.Write(commitment[:])
	var out model.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func hashNode(left, right model.Hash) model.Hash {
	h := sha256.New()
	h.Write([]byte{domainNode})
	h.Write(left[:])
	h.Write(right[:])
	var out model.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// snapshot is the full mutable state of a Tree, copied for checkpoint and
// restored on rollback.
type snapshot struct {
	size     uint64
	root     model.Hash
	frontier [model.Depth]model.Hash
	levels   [model.Depth + 1][]model.Hash
}

// Tree is an incremental, append-only Merkle tree of fixed depth
// model.Depth. It tracks just enough state — a frontier of pending
// left-hand nodes, and the history of completed nodes at every level — to
// append new leaves in O(Depth) and to answer authentication-path queries
// for any previously appended leaf.
type Tree struct {
	mu sync.Mutex

	size     uint64
	root     model.Hash
	frontier [model.Depth]model.Hash
	levels   [model.Depth + 1][]model.Hash

	checkpoint snapshot
}

// New creates an empty commitment tree.
func New() *Tree {
	t := &Tree{
		root: emptyHash[model.Depth],
	}
	t.checkpoint = t.snapshot()
	return t
}

func (t *Tree) snapshot() snapshot {
	s := snapshot{
		size:     t.size,
		root:     t.root,
		frontier: t.frontier,
	}
	for l := range t.levels {
		s.levels[l] = append([]model.Hash(nil), t.levels[l]...)
	}
	return s
}

// Size returns the number of leaves appended to the tree so far.
func (t *Tree) Size() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Root returns the tree's root hash at its current size.
func (t *Tree) Root() model.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// Append adds commitment as the next leaf and returns the position it was
// assigned. It updates the frontier in O(Depth) and folds the new leaf into
// the per-level node history so that AuthPath stays correct for every
// previously appended position.
func (t *Tree) Append(commitment model.Hash) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.size >= model.MaxLeaves {
		return 0, ErrFull
	}

	pos := t.size
	leaf := hashLeafBytes(commitment)

	// Update the frontier incrementally: at each level, a leaf that is the
	// left child becomes the new pending node for that level; a leaf that
	// is the right child consumes the pending node recorded earlier.
	current := leaf
	index := pos
	for level := 0; level < model.Depth; level++ {
		if index%2 == 0 {
			t.frontier[level] = current
			current = hashNode(current, emptyHash[level])
		} else {
			current = hashNode(t.frontier[level], current)
		}
		index /= 2
	}
	t.root = current
	t.size++

	// Fold the new leaf into the completed-node history, bubbling up every
	// pair that just completed.
	t.levels[0] = append(t.levels[0], leaf)
	for level := 0; level < model.Depth; level++ {
		n := len(t.levels[level])
		if n == 0 || n%2 != 0 {
			break
		}
		parent := hashNode(t.levels[level][n-2], t.levels[level][n-1])
		t.levels[level+1] = append(t.levels[level+1], parent)
	}

	return pos, nil
}

// AuthPath returns the current authentication path for the leaf at pos: the
// sibling hash needed at every level to walk that leaf up to the current
// root. It fails if pos has not been appended yet.
func (t *Tree) AuthPath(pos uint64) ([model.Depth]model.Hash, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authPath(pos)
}

func (t *Tree) authPath(pos uint64) ([model.Depth]model.Hash, error) {
	var path [model.Depth]model.Hash
	if pos >= t.size {
		return path, fmt.Errorf("position %d out of range (size: %d)", pos, t.size)
	}
	for level := 0; level < model.Depth; level++ {
		nodeIndex := pos >> uint(level)
		siblingIndex := nodeIndex ^ 1
		path[level] = t.subtreeRoot(level, siblingIndex)
	}
	return path, nil
}

// subtreeRoot returns the root hash of the subtree of the given level rooted
// at index, i.e. the subtree spanning leaf positions [index*2^level,
// (index+1)*2^level). Three cases arise from the tree's left-to-right fill
// order: the subtree is wholly past t.size (empty, emptyHash[level]), wholly
// within t.size (complete, recorded in t.levels[level] by Append's bubble-up),
// or straddles t.size (partially filled, never recorded — its root is folded
// on demand from its two half-size children). Exactly one child of a partial
// subtree can itself be partial, so this recurses at most level deep.
func (t *Tree) subtreeRoot(level int, index uint64) model.Hash {
	span := uint64(1) << uint(level)
	lo := index * span
	hi := lo + span
	if lo >= t.size {
		return emptyHash[level]
	}
	if hi <= t.size {
		return t.levels[level][index]
	}
	left := t.subtreeRoot(level-1, 2*index)
	right := t.subtreeRoot(level-1, 2*index+1)
	return hashNode(left, right)
}

// Verify reports whether commitment, combined with path, produces root at
// position pos. It is the read-only counterpart of AuthPath, used by tests
// of the tree/witness consistency invariant.
func Verify(commitment model.Hash, pos uint64, path [model.Depth]model.Hash, root model.Hash) bool {
	current := hashLeafBytes(commitment)
	index := pos
	for level := 0; level < model.Depth; level++ {
		if index%2 == 0 {
			current = hashNode(current, path[level])
		} else {
			current = hashNode(path[level], current)
		}
		index /= 2
	}
	return current == root
}

// Checkpoint marks the current state as the rollback target. It is called
// once a block's artifacts have been durably committed.
func (t *Tree) Checkpoint() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkpoint = t.snapshot()
}

// Rollback restores the state captured by the last Checkpoint (or the state
// the tree was loaded with, if Checkpoint was never called), discarding any
// appends made since. The block processor calls this at the start of every
// attempt, which makes the attempt idempotent with respect to in-memory
// state regardless of how many times it is retried.
func (t *Tree) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.size = t.checkpoint.size
	t.root = t.checkpoint.root
	t.frontier = t.checkpoint.frontier
	for l := range t.levels {
		t.levels[l] = append([]model.Hash(nil), t.checkpoint.levels[l]...)
	}
}
