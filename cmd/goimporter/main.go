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

// Command goimporter wires the block importer's control loop against
// an in-memory ledger and local fetcher stand-ins, the same way the
// teacher's node binary wires its subsystems together from cmd flags
// before handing control to the long-running service loop.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/blocksync-labs/goimporter/broadcaster"
	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/txpool"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/fetcher"
	"github.com/blocksync-labs/goimporter/importer"
	"github.com/blocksync-labs/goimporter/internal/config"
	"github.com/blocksync-labs/goimporter/internal/glog"
	"github.com/blocksync-labs/goimporter/ommerpool"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML config file overriding the defaults",
	}
	retryIntervalFlag = &cli.DurationFlag{
		Name:  "sync-retry-interval",
		Usage: "self-prompt period while idle between batches",
	}
	redownloadFlag = &cli.BoolFlag{
		Name:  "redownload-missing-state-nodes",
		Usage: "attempt to repair a missing trie node instead of treating it as fatal",
		Value: true,
	}
)

func main() {
	app := &cli.App{
		Name:  "goimporter",
		Usage: "run the block importer control loop against its collaborators",
		Flags: []cli.Flag{configFlag, retryIntervalFlag, redownloadFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := glog.New("goimporter")

	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if c.IsSet(retryIntervalFlag.Name) {
		cfg.SyncRetryInterval = c.Duration(retryIntervalFlag.Name)
	}
	if c.IsSet(redownloadFlag.Name) {
		cfg.RedownloadMissingStateNodes = c.Bool(redownloadFlag.Name)
	}

	genesis := types.NewBlock(&types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1)}, nil, nil)
	ledger := core.NewBlockChain(genesis, nil)

	ommers := ommerpool.New()
	txs := txpool.New()
	fanout := broadcaster.NewFanout()

	deliveries := make(chan fetcher.Delivery, 16)
	source := newDemoChainSource(ledger)
	f := fetcher.New(deliveries, source.blocks, source.node, log)

	resolver := importer.NewBranchResolver(ledger, ommers, txs, f, log, cfg.BranchResolutionRequestSize)
	batch := importer.NewBatchImporter(ledger, cfg.RedownloadMissingStateNodes)
	sync := importer.NewPoolSynchronizer(ommers, txs)
	single := importer.NewSingleBlockImporter(ledger, ommers, fanout, f, sync, log, cfg.RedownloadMissingStateNodes)

	actorCfg := importer.Config{
		BatchSize:                   config.BatchSize,
		SyncRetryInterval:           cfg.SyncRetryInterval,
		BranchResolutionRequestSize: cfg.BranchResolutionRequestSize,
		RedownloadMissingStateNodes: cfg.RedownloadMissingStateNodes,
	}
	actor := importer.NewActor(ledger, ledger, f, resolver, batch, single, deliveries, actorCfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go actor.Run(ctx)
	actor.Start()

	log.Info("goimporter running", "head", ledger.CurrentBlock().NumberU64())
	<-ctx.Done()
	log.Info("goimporter shutting down")
	return nil
}

// demoChainSource generates a deterministic linear chain on demand, a
// stand-in for a real peer-backed fetcher suitable only for exercising
// the control loop end to end.
type demoChainSource struct {
	ledger *core.BlockChain
}

func newDemoChainSource(ledger *core.BlockChain) *demoChainSource {
	return &demoChainSource{ledger: ledger}
}

func (s *demoChainSource) blocks(from uint64, count int) []*types.Block {
	parent := s.ledger.CurrentBlock()
	out := make([]*types.Block, 0, count)
	for i := 0; i < count; i++ {
		number := parent.NumberU64() + 1
		if number < from {
			number = from
		}
		header := &types.Header{
			ParentHash: parent.Hash(),
			Number:     new(big.Int).SetUint64(number),
			Difficulty: big.NewInt(1),
			Time:       uint64(number),
		}
		b := types.NewBlock(header, nil, nil)
		out = append(out, b)
		parent = b
	}
	return out
}

func (s *demoChainSource) node(hash common.Hash) []byte {
	return nil
}
