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

package storage_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/notemap"
	"github.com/masp-indexer/chain/storage"
	"github.com/masp-indexer/chain/tree"
	"github.com/masp-indexer/chain/witness"
)

func openGateway(t *testing.T) *storage.Gateway {
	t.Helper()
	dir := t.TempDir()
	gw, err := storage.Open(zerolog.Nop(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func TestGateway_EmptyDatabaseHasNoState(t *testing.T) {
	gw := openGateway(t)

	_, ok, err := gw.GetLastSyncedBlock()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = gw.GetLastCommitmentTree()
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := gw.GetLastWitnessMap()
	require.NoError(t, err)
	assert.Equal(t, 0, w.Size())
}

func TestGateway_CommitRoundTrip(t *testing.T) {
	gw := openGateway(t)

	tr := tree.New()
	pos, err := tr.Append(model.Hash{1})
	require.NoError(t, err)
	w := witness.New()
	require.NoError(t, w.Insert(tr, pos))

	tx := model.IndexedTx{BlockHeight: 1, TxIndex: 0, MaspTxIndex: 0}
	notes := notemap.New()
	notes.Record(tx, pos, false)

	rows := []storage.ShieldedTxRow{{IndexedTx: tx, Raw: []byte("raw-bytes")}}

	err = gw.Commit(model.ChainState{BlockHeight: 1}, tr, w, notes, rows)
	require.NoError(t, err)

	height, ok, err := gw.GetLastSyncedBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.BlockHeight(1), height)

	restoredTree, ok, err := gw.GetLastCommitmentTree()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tr.Root(), restoredTree.Root())
	assert.Equal(t, tr.Size(), restoredTree.Size())

	restoredWitness, err := gw.GetLastWitnessMap()
	require.NoError(t, err)
	assert.Equal(t, 1, restoredWitness.Size())
}

func TestGateway_RunMigrationsIsIdempotent(t *testing.T) {
	gw := openGateway(t)

	require.NoError(t, gw.RunMigrations(5))
	require.NoError(t, gw.RunMigrations(5))
}

func TestCheckStartupConsistency(t *testing.T) {
	assert.NoError(t, storage.CheckStartupConsistency(0, 0))
	assert.NoError(t, storage.CheckStartupConsistency(5, 5))
	assert.Error(t, storage.CheckStartupConsistency(0, 5))
	assert.Error(t, storage.CheckStartupConsistency(5, 0))
}
