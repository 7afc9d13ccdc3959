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

package model

import "encoding/hex"

// Depth is the fixed depth of the commitment tree. It bounds the tree to
// 2^Depth leaves, matching the incremental note-commitment trees used by
// shielded-pool protocols in this family.
const Depth = 32

// MaxLeaves is the largest number of leaves the tree can ever hold.
const MaxLeaves = uint64(1) << Depth

// Hash is a fixed-width field element: a commitment value, or a node in the
// commitment tree. The concrete hash function that produces it is a stand-in
// for the shielded pool's own cryptographic primitive, which is out of scope
// for this indexer; package tree is the only consumer that cares how it is
// derived.
type Hash [32]byte

// String renders the hash as a hex string, for logging.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
