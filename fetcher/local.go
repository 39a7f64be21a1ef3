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

package fetcher

import (
	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/internal/glog"
)

// BlockSource supplies up to count blocks starting at from. It stands
// in for the real peer-selection and request-pipelining logic a
// network fetcher would run.
type BlockSource func(from uint64, count int) []*types.Block

// NodeSource supplies the raw bytes of a trie node by hash, or nil if
// unavailable yet.
type NodeSource func(hash common.Hash) []byte

// Local is a single-process stand-in for the network fetcher: it
// answers PickBlocks/FetchStateNode from in-process callbacks instead
// of peers, and posts deliveries back to the importer's own inbox,
// exactly the message shape a networked fetcher would use.
type Local struct {
	outbox chan<- Delivery
	blocks BlockSource
	nodes  NodeSource
	log    *glog.Logger

	next uint64
}

// New returns a Local fetcher that posts deliveries onto outbox.
func New(outbox chan<- Delivery, blocks BlockSource, nodes NodeSource, log *glog.Logger) *Local {
	return &Local{outbox: outbox, blocks: blocks, nodes: nodes, log: log}
}

func (f *Local) Start(fromBlockNumber uint64) {
	f.next = fromBlockNumber
	f.log.Info("Fetcher starting", "from", fromBlockNumber)
}

func (f *Local) PickBlocks(count int) {
	go func() {
		blocks := f.blocks(f.next, count)
		if len(blocks) > 0 {
			f.next = blocks[len(blocks)-1].NumberU64() + 1
		}
		f.outbox <- PickedBlocks{Blocks: blocks}
	}()
}

func (f *Local) FetchStateNode(hash common.Hash) {
	go func() {
		data := f.nodes(hash)
		if data == nil {
			f.log.Warn("State node unavailable from source", "hash", hash)
			return
		}
		f.outbox <- FetchedStateNode{Nodes: map[common.Hash][]byte{hash: data}}
	}()
}

func (f *Local) InvalidateBlocksFrom(number uint64, reason string, withBlacklist bool) {
	f.next = number
	f.log.Warn("Invalidating fetcher queue", "from", number, "reason", reason, "blacklist", withBlacklist)
}

func (f *Local) BlockImportFailed(number uint64, reason string) {
	f.log.Warn("Reporting failed block import to fetcher", "number", number, "reason", reason)
}

var _ Fetcher = (*Local)(nil)
