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

package importer

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/txpool"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/internal/glog"
	"github.com/blocksync-labs/goimporter/ommerpool"
)

type singleFixture struct {
	ledger      *fakeLedger
	ommers      *ommerpool.Pool
	broadcaster *fakeBroadcaster
	fetcher     *fakeFetcher
	single      *SingleBlockImporter
}

func newSingleFixture(genesis *types.Block) *singleFixture {
	return newSingleFixtureWithRedownload(genesis, true)
}

func newSingleFixtureWithRedownload(genesis *types.Block, redownload bool) *singleFixture {
	ledger := newFakeLedger(genesis)
	ommers := ommerpool.New()
	bc := &fakeBroadcaster{}
	f := &fakeFetcher{}
	sync := NewPoolSynchronizer(ommers, txpool.New())
	single := NewSingleBlockImporter(ledger, ommers, bc, f, sync, glog.New("test"), redownload)
	return &singleFixture{ledger: ledger, ommers: ommers, broadcaster: bc, fetcher: f, single: single}
}

func TestSingleBlockImporterImportedToTopBroadcasts(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{Kind: core.ImportedToTop, Chain: []types.WithTD{{Block: block, TD: uint256.NewInt(1)}}}, nil)

	err := fx.single.ImportMined(block)

	require.NoError(t, err)
	require.Len(t, fx.broadcaster.calls, 1)
	assert.Same(t, block, fx.broadcaster.calls[0][0].Block)
}

func TestSingleBlockImporterEnqueuedAddsOmmer(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{Kind: core.Enqueued}, nil)

	err := fx.single.ImportBroadcast(block, "peer1")

	require.NoError(t, err)
	assert.True(t, fx.ommers.Has(block.Hash()))
	assert.Empty(t, fx.broadcaster.calls)
}

func TestSingleBlockImporterReorganisedBroadcastsNewTDs(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 5, 1)
	newBranch := []*types.Block{block}
	fx.ledger.stub(block, core.Outcome{
		Kind:      core.Reorganised,
		OldBranch: []*types.Block{genesis},
		NewBranch: newBranch,
		NewTDs:    []types.WithTD{{Block: block, TD: uint256.NewInt(5)}},
	}, nil)

	err := fx.single.ImportBroadcast(block, "peer1")

	require.NoError(t, err)
	require.Len(t, fx.broadcaster.calls, 1)
	assert.Same(t, block, fx.broadcaster.calls[0][0].Block)
}

func TestSingleBlockImporterMinedMissingStateNodeNeverInformsFetcher(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{}, &core.MissingStateNodeError{Hash: common.Hash{}})

	err := fx.single.ImportMined(block)

	require.NoError(t, err)
	assert.Empty(t, fx.fetcher.failedCalls, "a mined block's fault is never the fetcher's fault")
}

func TestSingleBlockImporterBroadcastFailedInformsFetcher(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{Kind: core.Failed, Err: errors.New("invalid signature")}, nil)

	err := fx.single.ImportBroadcast(block, "peer1")

	require.NoError(t, err)
	require.Len(t, fx.fetcher.failedCalls, 1)
	assert.Equal(t, "invalid signature", fx.fetcher.failedCalls[0].reason)
}

func TestSingleBlockImporterMinedFailedNeverInformsFetcher(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{Kind: core.Failed, Err: errors.New("invalid signature")}, nil)

	err := fx.single.ImportMined(block)

	require.NoError(t, err)
	assert.Empty(t, fx.fetcher.failedCalls)
}

func TestSingleBlockImporterCatastrophicErrorPropagates(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixture(genesis)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{}, errors.New("disk full"))

	err := fx.single.ImportMined(block)

	assert.Error(t, err)
}

func TestSingleBlockImporterMissingStateNodeWithRedownloadDisabledIsFatal(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	fx := newSingleFixtureWithRedownload(genesis, false)
	block := newTestBlock(1, genesis.Hash(), 1, 1)
	fx.ledger.stub(block, core.Outcome{}, &core.MissingStateNodeError{Hash: common.Hash{}})

	err := fx.single.ImportMined(block)

	require.Error(t, err)
	assert.Empty(t, fx.fetcher.failedCalls)
}
