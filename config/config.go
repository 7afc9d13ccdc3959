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

// Package config parses the indexer's command-line flags and environment
// overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds every option the indexer's configuration surface exposes.
type Config struct {
	CometBFTURL         string
	DatabaseURL         string
	Interval            time.Duration
	Verbosity           string
	MaxMigrationRetries int
}

const defaultMaxMigrationRetries = 5

// Parse parses os.Args (via pflag.CommandLine) and the
// DATABASE_MAX_MIGRATION_RETRY environment variable into a Config.
func Parse() Config {
	var (
		flagCometBFTURL string
		flagDatabaseURL string
		flagInterval    int
		flagVerbosity   string
	)

	pflag.StringVarP(&flagCometBFTURL, "cometbft-url", "c", "http://localhost:26657", "base URL of the consensus node's RPC endpoint")
	pflag.StringVarP(&flagDatabaseURL, "database-url", "d", "data", "directory for the indexer's database")
	pflag.IntVarP(&flagInterval, "interval", "i", 5, "retry interval in seconds")
	pflag.StringVarP(&flagVerbosity, "log", "l", "info", "log output level")

	pflag.Parse()

	return Config{
		CometBFTURL:         flagCometBFTURL,
		DatabaseURL:         flagDatabaseURL,
		Interval:            time.Duration(flagInterval) * time.Second,
		Verbosity:           flagVerbosity,
		MaxMigrationRetries: maxMigrationRetriesFromEnv(),
	}
}

func maxMigrationRetriesFromEnv() int {
	raw, ok := os.LookupEnv("DATABASE_MAX_MIGRATION_RETRY")
	if !ok {
		return defaultMaxMigrationRetries
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultMaxMigrationRetries
	}
	return n
}
