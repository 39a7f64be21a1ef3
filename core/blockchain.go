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

// Package core implements the ledger collaborator the importer drives:
// a minimal in-memory canonical chain with branch resolution and a
// trie-node store for the missing-state-node repair path. It is
// intentionally not an EVM or a real trie — validating transactions
// and executing state transitions are explicitly out of scope for the
// block importer this repository centers on.
package core

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/holiman/uint256"
)

var bigZero = big.NewInt(0)

// FaultInjector lets tests force a validation failure or a missing
// trie node fault on a given block, standing in for the EVM/trie
// faults a real ledger would raise.
type FaultInjector func(b *types.Block) error

type node struct {
	block *types.Block
	td    *uint256.Int
}

// BlockChain is a small, thread-safe, hash-linked chain store.
type BlockChain struct {
	mu sync.RWMutex

	nodes   map[common.Hash]*node
	numbers map[uint64]common.Hash // canonical number -> hash
	head    common.Hash

	trieNodes map[common.Hash][]byte

	onFault FaultInjector
}

// NewBlockChain seeds the chain with a genesis block at total
// difficulty equal to its own difficulty.
func NewBlockChain(genesis *types.Block, onFault FaultInjector) *BlockChain {
	bc := &BlockChain{
		nodes:     make(map[common.Hash]*node),
		numbers:   make(map[uint64]common.Hash),
		trieNodes: make(map[common.Hash][]byte),
		onFault:   onFault,
	}
	td := new(uint256.Int)
	if genesis.Difficulty() != nil {
		td = uint256.MustFromBig(genesis.Difficulty())
	}
	h := genesis.Hash()
	bc.nodes[h] = &node{block: genesis, td: td}
	bc.numbers[genesis.NumberU64()] = h
	bc.head = h
	return bc
}

// CurrentBlock returns the canonical head.
func (bc *BlockChain) CurrentBlock() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.nodes[bc.head].block
}

// GetTD returns the total difficulty recorded for hash, or nil.
func (bc *BlockChain) GetTD(hash common.Hash) *uint256.Int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if n, ok := bc.nodes[hash]; ok {
		return n.td
	}
	return nil
}

// SaveNode persists a trie node fetched during missing-node repair,
// keyed by its hash. blockNumber (the block whose import faulted on
// the node) is accepted for the NodeSaver contract but not recorded by
// this in-memory store.
func (bc *BlockChain) SaveNode(hash common.Hash, data []byte, blockNumber uint64) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.trieNodes[hash] = append([]byte(nil), data...)
	return nil
}

// ImportBlock drives a single block through the ledger, classifying
// it exactly as spec.md §3's ImportOutcome sum type requires.
func (bc *BlockChain) ImportBlock(block *types.Block) (Outcome, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	hash := block.Hash()
	if _, seen := bc.nodes[hash]; seen {
		return Outcome{Kind: Duplicate}, nil
	}
	parent, haveParent := bc.nodes[block.ParentHash()]
	if !haveParent {
		return Outcome{Kind: UnknownParent}, nil
	}
	if bc.onFault != nil {
		if err := bc.onFault(block); err != nil {
			var missing *MissingStateNodeError
			if errors.As(err, &missing) {
				return Outcome{}, missing
			}
			return Outcome{Kind: Failed, Err: err}, nil
		}
	}

	diff := block.Difficulty()
	if diff == nil {
		diff = zeroBig()
	}
	td := new(uint256.Int).Add(parent.td, uint256.MustFromBig(diff))
	bc.nodes[hash] = &node{block: block, td: td}

	headNode := bc.nodes[bc.head]
	switch {
	case block.ParentHash() == bc.head:
		bc.head = hash
		bc.numbers[block.NumberU64()] = hash
		return Outcome{Kind: ImportedToTop, Chain: []types.WithTD{{Block: block, TD: td}}}, nil

	case td.Cmp(headNode.td) > 0:
		oldBranch, newBranch, err := bc.forkBranches(bc.head, hash)
		if err != nil {
			return Outcome{Kind: Failed, Err: err}, nil
		}
		bc.head = hash
		for _, b := range newBranch {
			bc.numbers[b.NumberU64()] = b.Hash()
		}
		tds := make([]types.WithTD, len(newBranch))
		for i, b := range newBranch {
			tds[i] = types.WithTD{Block: b, TD: bc.nodes[b.Hash()].td}
		}
		return Outcome{
			Kind:      Reorganised,
			OldBranch: oldBranch,
			NewBranch: newBranch,
			NewTDs:    tds,
		}, nil

	default:
		return Outcome{Kind: Enqueued}, nil
	}
}

// forkBranches walks both the current head and the new tip back to
// their common ancestor. The displaced suffix is returned newest-first
// (its first element is the old head); the new suffix oldest-first.
func (bc *BlockChain) forkBranches(oldHead, newTip common.Hash) (old, new_ []*types.Block, err error) {
	oldPath, oldAncestors := bc.pathToGenesis(oldHead)
	cur := newTip
	for {
		if depth, common := oldAncestors[cur]; common {
			old = oldPath[:depth]
			reverse(new_)
			return old, new_, nil
		}
		n, ok := bc.nodes[cur]
		if !ok {
			return nil, nil, fmt.Errorf("broken chain while forking at %s", cur)
		}
		new_ = append(new_, n.block)
		if n.block.NumberU64() == 0 {
			return nil, nil, fmt.Errorf("no common ancestor found for %s", newTip)
		}
		cur = n.block.ParentHash()
	}
}

// pathToGenesis returns the blocks from hash down to and including
// genesis, ordered newest-first, plus a hash->index lookup for that
// ordering (used to find the common-ancestor depth during a reorg).
func (bc *BlockChain) pathToGenesis(hash common.Hash) ([]*types.Block, map[common.Hash]int) {
	var path []*types.Block
	idx := make(map[common.Hash]int)
	cur := hash
	for {
		n, ok := bc.nodes[cur]
		if !ok {
			break
		}
		idx[cur] = len(path)
		path = append(path, n.block)
		if n.block.NumberU64() == 0 {
			break
		}
		cur = n.block.ParentHash()
	}
	return path, idx
}

func reverse(blocks []*types.Block) {
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
}

// ResolveBranch classifies a candidate ordered header sequence against
// the canonical chain, per spec.md §4.2.
func (bc *BlockChain) ResolveBranch(headers []*types.Header) BranchClassification {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(headers) == 0 {
		return BranchClassification{Kind: InvalidBranch}
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].ParentHash != headers[i-1].Hash() {
			return BranchClassification{Kind: InvalidBranch}
		}
	}
	first := headers[0]
	parent, haveParent := bc.nodes[first.ParentHash]
	if !haveParent {
		return BranchClassification{Kind: UnknownBranch}
	}

	candidateTD := new(uint256.Int).Set(parent.td)
	for _, h := range headers {
		d := h.Difficulty
		if d == nil {
			d = zeroBig()
		}
		candidateTD.Add(candidateTD, uint256.MustFromBig(d))
	}

	headNode := bc.nodes[bc.head]
	if candidateTD.Cmp(headNode.td) <= 0 {
		return BranchClassification{Kind: NoChainSwitch}
	}
	oldPath, _ := bc.pathToGenesis(bc.head)
	var displaced []*types.Block
	for _, b := range oldPath {
		if b.NumberU64() <= parent.block.NumberU64() {
			break
		}
		displaced = append(displaced, b)
	}
	reverse(displaced)
	return BranchClassification{Kind: NewBetterBranch, OldBranch: displaced}
}

func zeroBig() *big.Int { return bigZero }
