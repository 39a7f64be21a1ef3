// Copyright 2024 The goimporter Authors
// This file is part of the goimporter library.
//
// The goimporter library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The goimporter library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the goimporter library. If not, see <http://www.gnu.org/licenses/>.

// Package config loads the importer's recognised options (spec.md §6)
// from an optional TOML file, the same library the teacher uses for
// its own genesis/config files, with CLI flags in cmd/goimporter free
// to override individual fields afterwards.
package config

import (
	"os"
	"time"

	"github.com/naoina/toml"
)

// Config holds the options spec.md §6 recognises.
type Config struct {
	// SyncRetryInterval is the self-prompt period when idle between
	// batches (the actor's receive-timeout Tick).
	SyncRetryInterval time.Duration `toml:"sync_retry_interval"`

	// BranchResolutionRequestSize is the lookback used to re-fetch
	// history on an UnknownBranch classification.
	BranchResolutionRequestSize uint64 `toml:"branch_resolution_request_size"`

	// RedownloadMissingStateNodes enables the missing-node repair
	// path; when false a missing node is fatal.
	RedownloadMissingStateNodes bool `toml:"redownload_missing_state_nodes"`
}

// BatchSize is fixed per spec.md §6 and is not configurable.
const BatchSize = 50

// Default returns the configuration the importer runs with when no
// file or flag overrides are supplied.
func Default() Config {
	return Config{
		SyncRetryInterval:           10 * time.Second,
		BranchResolutionRequestSize: 512,
		RedownloadMissingStateNodes: true,
	}
}

// Load reads a TOML file at path into a Config seeded with Default(),
// so a file only needs to set the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
