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

package processor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/masp-indexer/chain/chainrpc"
	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/notemap"
	"github.com/masp-indexer/chain/storage"
	"github.com/masp-indexer/chain/tree"
	"github.com/masp-indexer/chain/witness"
)

// Chain is the subset of chainrpc.Client the processor depends on.
type Chain interface {
	IsBlockCommitted(ctx context.Context, height uint64) (bool, error)
	QueryMaspTxsInBlock(ctx context.Context, height uint64) (chainrpc.BlockData, error)
}

// Storage is the subset of storage.Gateway the processor depends on.
type Storage interface {
	Commit(state model.ChainState, t *tree.Tree, w *witness.Map, notes *notemap.Map, shieldedTxs []storage.ShieldedTxRow) error
}

// Processor drives one height through the core algorithm: roll back,
// confirm finality, fetch shielded transactions, append their commitments,
// update witnesses, and commit atomically.
type Processor struct {
	log   zerolog.Logger
	chain Chain
	store Storage

	tree    *tree.Tree
	witness *witness.Map
}

// New creates a processor sharing the given tree and witness map with its
// caller. The processor keeps both handles and uses the same ones on every
// attempt, across every height.
func New(log zerolog.Logger, chain Chain, store Storage, t *tree.Tree, w *witness.Map) *Processor {
	return &Processor{
		log:     log,
		chain:   chain,
		store:   store,
		tree:    t,
		witness: w,
	}
}

// Process runs one attempt at height. It is idempotent: its first action is
// to roll the tree and witness map back to their last checkpoint, so that a
// retried attempt never observes partial work from a previous failure at
// the same height.
func (p *Processor) Process(ctx context.Context, height model.BlockHeight) error {
	p.tree.Rollback()
	p.witness.Rollback()

	committed, err := p.chain.IsBlockCommitted(ctx, uint64(height))
	if err != nil {
		return fmt.Errorf("could not check block finality: %w", err)
	}
	if !committed {
		return fmt.Errorf("height %d: %w", height, ErrNotFinalized)
	}

	data, err := p.chain.QueryMaspTxsInBlock(ctx, uint64(height))
	if err != nil {
		return fmt.Errorf("could not query masp transactions: %w", err)
	}

	notes := notemap.New()
	var shieldedTxs []storage.ShieldedTxRow

	for _, indexedTx := range data.Transactions {
		for maspIdx, maspTx := range indexedTx.Transaction.MaspTxs {
			coord := model.IndexedTx{
				BlockHeight: height,
				TxIndex:     model.TxIndex(indexedTx.TxIndex),
				MaspTxIndex: model.MaspTxIndex(maspIdx),
			}

			if err := p.appendOutputs(coord, maspTx, notes); err != nil {
				return fmt.Errorf("could not append outputs for %s: %w", coord, err)
			}

			shieldedTxs = append(shieldedTxs, storage.ShieldedTxRow{
				IndexedTx: coord,
				Raw:       maspTx.Raw,
			})
		}
	}

	err = p.store.Commit(model.ChainState{BlockHeight: height}, p.tree, p.witness, notes, shieldedTxs)
	if err != nil {
		return fmt.Errorf("could not commit block %d: %w", height, err)
	}

	p.tree.Checkpoint()
	p.witness.Checkpoint()

	p.log.Info().
		Uint64("height", uint64(height)).
		Int("transactions", len(data.Transactions)).
		Int("notes", notes.Len()).
		Msg("committed block")

	return nil
}

// appendOutputs appends every output commitment of one shielded
// sub-transaction to the tree, in protocol-defined order, updating every
// live witness after each append.
func (p *Processor) appendOutputs(coord model.IndexedTx, maspTx chainrpc.ShieldedTx, notes *notemap.Map) error {
	for _, output := range maspTx.Outputs {
		pos, err := p.tree.Append(model.Hash(output.Cmu))
		if err != nil {
			return fmt.Errorf("could not append leaf: %w", err)
		}

		if err := p.witness.UpdateAll(p.tree); err != nil {
			return fmt.Errorf("could not update witnesses: %w", err)
		}

		if err := p.witness.Insert(p.tree, pos); err != nil {
			return fmt.Errorf("could not insert new witness: %w", err)
		}

		notes.Record(coord, pos, false)
	}
	return nil
}
