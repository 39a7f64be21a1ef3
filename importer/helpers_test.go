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
	"math/big"
	"sync"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/types"
)

func newTestBlock(number int64, parent common.Hash, difficulty int64, seed byte) *types.Block {
	header := &types.Header{
		ParentHash: parent,
		Number:     big.NewInt(number),
		Difficulty: big.NewInt(difficulty),
		Coinbase:   common.Address{seed},
	}
	return types.NewBlock(header, nil, nil)
}

func newTestChain(n int, genesis *types.Block, seed byte) []*types.Block {
	out := make([]*types.Block, n)
	parent := genesis
	for i := 0; i < n; i++ {
		b := newTestBlock(parent.NumberU64()+1, parent.Hash(), 1, seed)
		out[i] = b
		parent = b
	}
	return out
}

// fakeLedger is a scriptable Ledger double: ImportBlock results are
// stubbed per block hash (unstubbed blocks import to top) and
// ResolveBranch returns the fixed resolveResult, so each scenario only
// has to describe the outcome it cares about.
type fakeLedger struct {
	mu sync.Mutex

	importResults map[common.Hash]fakeImportResult
	resolveResult core.BranchClassification
	current       *types.Block

	importCalls  []*types.Block
	resolveCalls [][]*types.Header
	savedNodes   []common.Hash
}

type fakeImportResult struct {
	outcome core.Outcome
	err     error
}

func newFakeLedger(genesis *types.Block) *fakeLedger {
	return &fakeLedger{
		importResults: make(map[common.Hash]fakeImportResult),
		current:       genesis,
	}
}

func (l *fakeLedger) stub(block *types.Block, outcome core.Outcome, err error) {
	l.importResults[block.Hash()] = fakeImportResult{outcome: outcome, err: err}
}

func (l *fakeLedger) ImportBlock(block *types.Block) (core.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.importCalls = append(l.importCalls, block)
	if r, ok := l.importResults[block.Hash()]; ok {
		return r.outcome, r.err
	}
	return core.Outcome{Kind: core.ImportedToTop, Chain: []types.WithTD{{Block: block, TD: nil}}}, nil
}

func (l *fakeLedger) ResolveBranch(headers []*types.Header) core.BranchClassification {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolveCalls = append(l.resolveCalls, headers)
	return l.resolveResult
}

func (l *fakeLedger) SaveNode(hash common.Hash, data []byte, blockNumber uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.savedNodes = append(l.savedNodes, hash)
	return nil
}

func (l *fakeLedger) CurrentBlock() *types.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// fakeSaver is a scriptable NodeSaver double.
type fakeSaver struct {
	mu    sync.Mutex
	saved []common.Hash
	err   error
}

func (s *fakeSaver) SaveNode(hash common.Hash, data []byte, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, hash)
	return s.err
}

// fakeFetcher records every outbound call the importer makes.
type fakeFetcher struct {
	mu sync.Mutex

	startCalls      []uint64
	pickCalls       []int
	fetchNodeCalls  []common.Hash
	invalidateCalls []invalidateCall
	failedCalls     []failedCall
}

type invalidateCall struct {
	from      uint64
	reason    string
	blacklist bool
}

type failedCall struct {
	number uint64
	reason string
}

func (f *fakeFetcher) Start(from uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls = append(f.startCalls, from)
}

func (f *fakeFetcher) PickBlocks(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pickCalls = append(f.pickCalls, count)
}

func (f *fakeFetcher) FetchStateNode(hash common.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchNodeCalls = append(f.fetchNodeCalls, hash)
}

func (f *fakeFetcher) InvalidateBlocksFrom(number uint64, reason string, withBlacklist bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateCalls = append(f.invalidateCalls, invalidateCall{number, reason, withBlacklist})
}

func (f *fakeFetcher) BlockImportFailed(number uint64, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedCalls = append(f.failedCalls, failedCall{number, reason})
}

// fakeBroadcaster records every adopted chain broadcast.
type fakeBroadcaster struct {
	mu    sync.Mutex
	calls [][]types.WithTD
}

func (b *fakeBroadcaster) BroadcastBlocks(chain []types.WithTD) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, chain)
}
