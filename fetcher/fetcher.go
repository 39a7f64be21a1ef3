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

// Package fetcher models the block fetcher collaborator described in
// spec.md §6: it supplies batches of blocks and trie state nodes, and
// is told where to resume after a fault. The real network fetcher
// (peer selection, request pipelining, header validation) is out of
// scope; this package only carries the message surface the importer's
// state machine depends on.
package fetcher

import (
	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
)

// Fetcher is the set of outbound messages the importer sends, per
// spec.md §6 "Fetcher (messages sent)".
type Fetcher interface {
	// Start tells the fetcher to begin supplying blocks from
	// fromBlockNumber onward.
	Start(fromBlockNumber uint64)

	// PickBlocks requests the next count blocks for a batch import.
	PickBlocks(count int)

	// FetchStateNode requests the trie node identified by hash.
	FetchStateNode(hash common.Hash)

	// InvalidateBlocksFrom tells the fetcher to discard its queue from
	// number onward and re-request with history if required.
	// withBlacklist is false only for the NoChainSwitch classification.
	InvalidateBlocksFrom(number uint64, reason string, withBlacklist bool)

	// BlockImportFailed reports a peer-broadcast single block's import
	// failure back to the fetcher so it can penalise the source peer.
	BlockImportFailed(number uint64, reason string)
}

// Delivery is the set of inbound messages the fetcher posts back to
// the importer's inbox, per spec.md §6 "Fetcher (messages received)".
type Delivery interface {
	isDelivery()
}

// PickedBlocks answers a PickBlocks request.
type PickedBlocks struct {
	Blocks []*types.Block
}

func (PickedBlocks) isDelivery() {}

// FetchedStateNode answers a FetchStateNode request. Per spec.md §6,
// exactly one node is used even if more are present in the map.
type FetchedStateNode struct {
	Nodes map[common.Hash][]byte
}

func (FetchedStateNode) isDelivery() {}

// First returns an arbitrary (hash, data) pair from the delivery,
// matching spec.md §6's ".values().first()" contract.
func (d FetchedStateNode) First() (common.Hash, []byte, bool) {
	for h, data := range d.Nodes {
		return h, data, true
	}
	return common.Hash{}, nil, false
}
