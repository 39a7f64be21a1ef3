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
	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/types"
)

// event is the sum of messages the actor's inbox accepts. Go has no
// sum types, so each variant is its own struct and the event loop
// type-switches on the interface, the same shape a `match` over an
// actor's behavior would take.
type event interface {
	isEvent()
}

// Start kicks the actor off from Idle.
type Start struct{}

func (Start) isEvent() {}

// OnTip/NotOnTop carry the fetcher's sync-tip belief.
type OnTip struct{}
type NotOnTop struct{}

func (OnTip) isEvent()    {}
func (NotOnTop) isEvent() {}

// Tick is the self-prompt fired on the sync-retry-interval timeout.
type Tick struct{}

func (Tick) isEvent() {}

// PickedBlocks carries a batch delivered by the fetcher.
type PickedBlocks struct {
	Blocks []*types.Block
}

func (PickedBlocks) isEvent() {}

// MinedBlock carries a locally mined block.
type MinedBlock struct {
	Block *types.Block
}

func (MinedBlock) isEvent() {}

// ImportNewBlock carries a peer-broadcast single block.
type ImportNewBlock struct {
	Block *types.Block
	Peer  string
}

func (ImportNewBlock) isEvent() {}

// FetchedStateNode carries the fetcher's answer to FetchStateNode.
type FetchedStateNode struct {
	Nodes map[common.Hash][]byte
}

func (FetchedStateNode) isEvent() {}

// behaviorKind names the state the actor should resume in once an
// import completes, the Go rendering of spec.md §9's `become`.
type behaviorKind int

const (
	behaviorRunning behaviorKind = iota
	behaviorResolvingMissingNode
)

// importDone is posted back onto the actor's own inbox when an import
// future completes, preserving the single-writer invariant on State
// per spec.md §5's completion-rendezvous rule.
type importDone struct {
	next          behaviorKind
	blocksToRetry []*types.Block
}

func (importDone) isEvent() {}

// Ledger is the EVM/trie collaborator the importer drives. Its
// internal correctness is out of scope; the importer only depends on
// this contract (spec.md §6).
type Ledger interface {
	ImportBlock(block *types.Block) (core.Outcome, error)
	ResolveBranch(headers []*types.Header) core.BranchClassification
	CurrentBlock() *types.Block
}

// NodeSaver persists a trie node fetched during missing-node repair.
type NodeSaver interface {
	SaveNode(hash common.Hash, data []byte, blockNumber uint64) error
}
