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

package notemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/notemap"
)

func TestMap_RecordPreservesOrder(t *testing.T) {
	m := notemap.New()

	tx := model.IndexedTx{BlockHeight: 10, TxIndex: 0, MaspTxIndex: 0}
	m.Record(tx, 100, false)
	m.Record(tx, 101, false)

	rows := m.Rows()
	assert.Len(t, rows, 2)
	assert.Equal(t, uint64(100), rows[0].NotePosition)
	assert.Equal(t, uint64(101), rows[1].NotePosition)
	assert.False(t, rows[0].IsFeeUnshielding)
}

func TestMap_ResetClears(t *testing.T) {
	m := notemap.New()
	tx := model.IndexedTx{BlockHeight: 1}
	m.Record(tx, 0, false)
	assert.Equal(t, 1, m.Len())

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Rows())
}

func TestMap_RowsReturnsCopy(t *testing.T) {
	m := notemap.New()
	tx := model.IndexedTx{BlockHeight: 1}
	m.Record(tx, 0, false)

	rows := m.Rows()
	rows[0].NotePosition = 999

	assert.Equal(t, uint64(0), m.Rows()[0].NotePosition)
}
