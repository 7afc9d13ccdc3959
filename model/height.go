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

// Package model holds the plain value types shared across the indexer: chain
// coordinates, the commitment hash type and the sentinel errors that every
// other package propagates.
package model

import "fmt"

// BlockHeight identifies a committed block on the source chain. It is
// monotone and, once observed, never deleted.
type BlockHeight uint64

// Next returns the height that follows this one.
func (h BlockHeight) Next() BlockHeight {
	return h + 1
}

func (h BlockHeight) String() string {
	return fmt.Sprintf("%d", uint64(h))
}

// TxIndex is the 0-based position of a transaction within its block.
type TxIndex uint32

// MaspTxIndex is the 0-based position of a shielded sub-transaction within
// its enclosing transaction.
type MaspTxIndex uint32

// IndexedTx is the canonical coordinate of a shielded sub-transaction in
// chain history. It is totally ordered, lexicographically, on its three
// fields.
type IndexedTx struct {
	BlockHeight BlockHeight
	TxIndex     TxIndex
	MaspTxIndex MaspTxIndex
}

// Less reports whether tx sorts strictly before other in the canonical
// (height, tx index, masp index) order.
func (tx IndexedTx) Less(other IndexedTx) bool {
	if tx.BlockHeight != other.BlockHeight {
		return tx.BlockHeight < other.BlockHeight
	}
	if tx.TxIndex != other.TxIndex {
		return tx.TxIndex < other.TxIndex
	}
	return tx.MaspTxIndex < other.MaspTxIndex
}

func (tx IndexedTx) String() string {
	return fmt.Sprintf("%d/%d/%d", tx.BlockHeight, tx.TxIndex, tx.MaspTxIndex)
}

// ChainState is the small record committed alongside a block's artifacts; it
// denotes the height whose processing is being persisted.
type ChainState struct {
	BlockHeight BlockHeight
}
