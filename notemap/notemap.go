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

// Package notemap builds the per-block rows that let a downstream note
// index answer "where in the tree did this transaction's notes land": one
// row per output, carrying the transaction coordinate, the absolute leaf
// position it was appended at, and whether it belongs to a fee-unshielding
// transaction.
package notemap

import "github.com/masp-indexer/chain/model"

// Row is a single recorded note position, ready for persistence.
type Row struct {
	IndexedTx        model.IndexedTx
	NotePosition     uint64
	IsFeeUnshielding bool
}

// Map accumulates the note-position rows produced while processing a single
// block. It is reset at the start of every block-processing attempt, like
// the tree and witness map it is built alongside.
type Map struct {
	rows []Row
}

// New creates an empty per-block note map.
func New() *Map {
	return &Map{}
}

// Record appends a row for one output note. isFeeUnshielding is always
// false for now: the indexer does not yet distinguish fee-unshielding
// transactions, but the field is kept so schemas and callers don't need to
// change once that extraction logic exists.
func (m *Map) Record(tx model.IndexedTx, position uint64, isFeeUnshielding bool) {
	m.rows = append(m.rows, Row{
		IndexedTx:        tx,
		NotePosition:     position,
		IsFeeUnshielding: isFeeUnshielding,
	})
}

// Rows returns the rows recorded so far, in the order they were recorded
// (which is also tree-append order).
func (m *Map) Rows() []Row {
	return append([]Row(nil), m.rows...)
}

// Len returns the number of rows recorded so far.
func (m *Map) Len() int {
	return len(m.rows)
}

// Reset clears the map, ready for the next block-processing attempt.
func (m *Map) Reset() {
	m.rows = nil
}
