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

// Package metrics decorates the storage gateway and the follower loop with
// Prometheus counters and gauges: wrap the component being measured, record
// a metric, then delegate. Nothing here serves the registry over HTTP; an
// operator who wants it mounts it themselves.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/notemap"
	"github.com/masp-indexer/chain/storage"
	"github.com/masp-indexer/chain/tree"
	"github.com/masp-indexer/chain/witness"
)

// StorageWriter is the subset of storage.Gateway that StorageGateway
// decorates.
type StorageWriter interface {
	Commit(state model.ChainState, t *tree.Tree, w *witness.Map, notes *notemap.Map, shieldedTxs []storage.ShieldedTxRow) error
}

// StorageGateway wraps a storage writer, counting indexed blocks and notes
// and tracking the last-synced height.
type StorageGateway struct {
	next StorageWriter

	indexedBlocks prometheus.Counter
	indexedNotes  prometheus.Counter
	lastSynced    prometheus.Gauge
}

// NewStorageGateway wraps next with metrics recording.
func NewStorageGateway(next StorageWriter) *StorageGateway {
	return &StorageGateway{
		next: next,

		indexedBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masp_indexer_indexed_blocks_total",
			Help: "number of blocks indexed",
		}),
		indexedNotes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masp_indexer_indexed_notes_total",
			Help: "number of shielded output notes indexed",
		}),
		lastSynced: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "masp_indexer_last_synced_height",
			Help: "height of the last block committed",
		}),
	}
}

// Commit records metrics for one block's commit, then delegates.
func (g *StorageGateway) Commit(state model.ChainState, t *tree.Tree, w *witness.Map, notes *notemap.Map, shieldedTxs []storage.ShieldedTxRow) error {
	err := g.next.Commit(state, t, w, notes, shieldedTxs)
	if err != nil {
		return err
	}
	g.indexedBlocks.Inc()
	g.indexedNotes.Add(float64(notes.Len()))
	g.lastSynced.Set(float64(state.BlockHeight))
	return nil
}

// FollowerProcessor is the subset of processor.Processor that Follower
// decorates.
type FollowerProcessor interface {
	Process(ctx context.Context, height model.BlockHeight) error
}

// Follower wraps a processor, counting failed attempts (retries).
type Follower struct {
	next FollowerProcessor

	retries prometheus.Counter
}

// NewFollower wraps next with retry-count metrics.
func NewFollower(next FollowerProcessor) *Follower {
	return &Follower{
		next: next,
		retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masp_indexer_follower_retries_total",
			Help: "number of failed block-processing attempts",
		}),
	}
}

// Process delegates to next, counting failed attempts.
func (f *Follower) Process(ctx context.Context, height model.BlockHeight) error {
	err := f.next.Process(ctx, height)
	if err != nil {
		f.retries.Inc()
	}
	return err
}
