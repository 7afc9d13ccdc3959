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

// Package storage is the indexer's single backing store: one embedded
// Badger database holding every persisted artifact as key-prefixed rows, so
// that a block's entire commit is one Badger transaction.
package storage

// Key prefixes partition the single Badger keyspace into the logical
// tables the persisted state layout is made of.
const (
	prefixSchemaVersion  = 1
	prefixChainState     = 2
	prefixCommitmentTree = 3
	prefixWitnessMap     = 4
	prefixNotesIndex     = 5
	prefixShieldedTx     = 6
)

// schemaVersion is the version this binary expects RunMigrations to bring
// the database to.
const schemaVersion = 1
