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

package witness

// Snapshot is the exported, CBOR-friendly representation of a Map's full
// state, keyed by position so field ordering stays stable across encodes.
type Snapshot struct {
	Witnesses map[uint64]Witness
}

// Export captures the map's current state for persistence.
func (m *Map) Export() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Witnesses: cloneWitnesses(m.witnesses)}
}

// Restore builds a Map from a previously exported Snapshot. The map's
// rollback checkpoint is set to the restored state.
func Restore(s Snapshot) *Map {
	m := &Map{
		witnesses: cloneWitnesses(s.Witnesses),
	}
	m.checkpoint = cloneWitnesses(m.witnesses)
	return m
}
