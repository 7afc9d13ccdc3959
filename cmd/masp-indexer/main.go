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

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/masp-indexer/chain/chainrpc"
	"github.com/masp-indexer/chain/config"
	"github.com/masp-indexer/chain/follower"
	"github.com/masp-indexer/chain/metrics"
	"github.com/masp-indexer/chain/model"
	"github.com/masp-indexer/chain/processor"
	"github.com/masp-indexer/chain/storage"
	"github.com/masp-indexer/chain/tree"
)

func main() {

	// Signal catching for clean shutdown.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	cfg := config.Parse()

	// Logger initialization.
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	level, err := zerolog.ParseLevel(cfg.Verbosity)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log verbosity")
	}
	log = log.Level(level)

	gateway, err := storage.Open(log, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open database")
	}

	err = gateway.RunMigrations(cfg.MaxMigrationRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("could not run migrations")
	}

	t, hasTree, err := gateway.GetLastCommitmentTree()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load commitment tree")
	}
	w, err := gateway.GetLastWitnessMap()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load witness map")
	}

	var treeSize uint64
	if hasTree {
		treeSize = t.Size()
	} else {
		t = tree.New()
	}
	err = storage.CheckStartupConsistency(treeSize, w.Size())
	if err != nil {
		log.Fatal().Err(err).Msg("inconsistent database state")
	}

	lastSynced, hasSynced, err := gateway.GetLastSyncedBlock()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load last synced block")
	}
	start := model.BlockHeight(0)
	if hasSynced {
		start = lastSynced.Next()
	}

	client, err := chainrpc.New(cfg.CometBFTURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create chain rpc client")
	}

	meteredStorage := metrics.NewStorageGateway(gateway)
	proc := processor.New(log, client, meteredStorage, t, w)
	meteredFollower := metrics.NewFollower(proc)
	loop := follower.New(log, meteredFollower, cfg.Interval)

	go func() {
		runStart := time.Now()
		log.Info().Time("start", runStart).Msg("masp indexer starting")
		err := loop.Run(context.Background(), start)
		if err != nil {
			log.Error().Err(err).Msg("follower loop encountered error")
		}
		duration := time.Since(runStart)
		log.Info().Str("duration", duration.Round(time.Second).String()).Msg("masp indexer stopped")
	}()

	select {
	case <-sig:
		log.Info().Msg("masp indexer stopping")
	case <-loop.Done():
		log.Info().Msg("masp indexer done")
	}
	go func() {
		<-sig
		log.Warn().Msg("forcing exit")
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = loop.Stop(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not stop indexer")
	}

	err = gateway.Close()
	if err != nil {
		log.Error().Err(err).Msg("could not close database")
	}

	os.Exit(0)
}
