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

package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/notemap"
	"github.com/masp-indexer/chain/tree"
	"github.com/masp-indexer/chain/witness"
)

// Gateway is the indexer's single point of contact with persistent storage:
// one embedded Badger database holding every persisted artifact as a set of
// key-prefixed rows, committed together in one transaction.
type Gateway struct {
	log zerolog.Logger
	db  *badger.DB
}

// Open opens (creating if necessary) the Badger database at dir.
func Open(log zerolog.Logger, dir string) (*Gateway, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	return &Gateway{log: log, db: db}, nil
}

// Close releases the underlying database handle.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// RunMigrations ensures the database's schema-version row matches this
// binary's expected version, retrying up to maxRetries times with a 3
// second sleep between attempts on transient failure.
func (g *Gateway) RunMigrations(maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.log.Warn().Int("attempt", attempt).Err(lastErr).Msg("retrying schema migration")
			time.Sleep(3 * time.Second)
		}

		err := g.db.Update(func(txn *badger.Txn) error {
			var version int
			item, err := txn.Get(encodeKey(prefixSchemaVersion))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				version = 0
			case err != nil:
				return fmt.Errorf("could not retrieve schema version: %w", err)
			default:
				err = item.Value(func(val []byte) error {
					return decodeValue(val, &version)
				})
				if err != nil {
					return fmt.Errorf("could not decode schema version: %w", err)
				}
			}

			if version == schemaVersion {
				return nil
			}

			val, err := encodeValue(schemaVersion)
			if err != nil {
				return err
			}
			return txn.Set(encodeKey(prefixSchemaVersion), val)
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("could not run migrations after %d attempts: %w", maxRetries+1, lastErr)
}

// GetLastSyncedBlock returns the height of the last block committed, and
// false if no block has ever been committed.
func (g *Gateway) GetLastSyncedBlock() (model.BlockHeight, bool, error) {
	var state model.ChainState
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(prefixChainState))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeValue(val, &state)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not retrieve last synced block: %w", err)
	}
	return state.BlockHeight, true, nil
}

// GetLastCommitmentTree returns the tree persisted by the last commit, and
// false if none has ever been committed.
func (g *Gateway) GetLastCommitmentTree() (*tree.Tree, bool, error) {
	var snap tree.Snapshot
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(prefixCommitmentTree))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeValue(val, &snap)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not retrieve last commitment tree: %w", err)
	}
	return tree.Restore(snap), true, nil
}

// GetLastWitnessMap returns the witness map persisted by the last commit,
// or an empty map if none has ever been committed.
func (g *Gateway) GetLastWitnessMap() (*witness.Map, error) {
	var snap witness.Snapshot
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(prefixWitnessMap))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeValue(val, &snap)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return witness.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve last witness map: %w", err)
	}
	return witness.Restore(snap), nil
}

// CheckStartupConsistency guards against a partially migrated database: if
// exactly one of (tree size, witness count) is zero while the other is
// nonzero, the database state is inconsistent and startup must refuse to
// proceed. Both zero (fresh database) and both nonzero (steady state) are
// accepted.
func CheckStartupConsistency(treeSize uint64, witnessCount int) error {
	treeEmpty := treeSize == 0
	witnessEmpty := witnessCount == 0
	if treeEmpty != witnessEmpty {
		return fmt.Errorf("%w: tree size %d, witness count %d", model.ErrInvalidState, treeSize, witnessCount)
	}
	return nil
}

// ShieldedTxRow is one raw shielded transaction row, keyed by its
// IndexedTx coordinate.
type ShieldedTxRow struct {
	IndexedTx model.IndexedTx
	Raw       []byte
}

// Commit atomically persists every artifact produced while processing one
// block: the new last-synced height, the tree and witness map (replacing
// the prior singleton rows), the note-position index rows, and the raw
// shielded transaction rows. Either all of it lands, or none of it does.
func (g *Gateway) Commit(
	state model.ChainState,
	t *tree.Tree,
	w *witness.Map,
	notes *notemap.Map,
	shieldedTxs []ShieldedTxRow,
) error {
	return g.db.Update(func(txn *badger.Txn) error {
		stateVal, err := encodeValue(state)
		if err != nil {
			return err
		}
		if err := txn.Set(encodeKey(prefixChainState), stateVal); err != nil {
			return fmt.Errorf("could not persist chain state: %w", err)
		}

		treeVal, err := encodeValue(t.Export())
		if err != nil {
			return err
		}
		if err := txn.Set(encodeKey(prefixCommitmentTree), treeVal); err != nil {
			return fmt.Errorf("could not persist commitment tree: %w", err)
		}

		witnessVal, err := encodeValue(w.Export())
		if err != nil {
			return err
		}
		if err := txn.Set(encodeKey(prefixWitnessMap), witnessVal); err != nil {
			return fmt.Errorf("could not persist witness map: %w", err)
		}

		for _, row := range notes.Rows() {
			key := encodeKey(prefixNotesIndex,
				uint64(row.IndexedTx.BlockHeight),
				uint32(row.IndexedTx.TxIndex),
				uint32(row.IndexedTx.MaspTxIndex),
				row.NotePosition,
			)
			val, err := encodeValue(row)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return fmt.Errorf("could not persist note index row: %w", err)
			}
		}

		for _, row := range shieldedTxs {
			key := encodeKey(prefixShieldedTx,
				uint64(row.IndexedTx.BlockHeight),
				uint32(row.IndexedTx.TxIndex),
				uint32(row.IndexedTx.MaspTxIndex),
			)
			val, err := encodeValue(row)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return fmt.Errorf("could not persist shielded tx row: %w", err)
			}
		}

		return nil
	})
}
