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
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/txpool"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/fetcher"
	"github.com/blocksync-labs/goimporter/internal/glog"
	"github.com/blocksync-labs/goimporter/ommerpool"
)

// BranchResolver classifies a candidate ordered block sequence against
// the ledger's canonical chain and reacts to the verdict before the
// batch importer ever sees the blocks, per spec.md §4.2.
type BranchResolver struct {
	ledger   Ledger
	ommers   *ommerpool.Pool
	txpool   *txpool.Pool
	fetcher  fetcher.Fetcher
	log      *glog.Logger
	lookback uint64 // branch_resolution_request_size
}

// NewBranchResolver wires a resolver against its collaborators.
func NewBranchResolver(ledger Ledger, ommers *ommerpool.Pool, txs *txpool.Pool, f fetcher.Fetcher, log *glog.Logger, branchResolutionRequestSize uint64) *BranchResolver {
	return &BranchResolver{ledger: ledger, ommers: ommers, txpool: txs, fetcher: f, log: log, lookback: branchResolutionRequestSize}
}

// Resolve returns the blocks that should proceed to batch import:
// unchanged on NewBetterBranch, empty otherwise. Side effects on the
// ommer/tx pools and the fetcher are dispatched before returning, so a
// later batch-import failure can never lose reorg-bound transactions.
func (r *BranchResolver) Resolve(blocks []*types.Block) []*types.Block {
	if len(blocks) == 0 {
		return blocks
	}
	headers := make([]*types.Header, len(blocks))
	for i, b := range blocks {
		headers[i] = b.Header()
	}
	classification := r.ledger.ResolveBranch(headers)

	switch classification.Kind {
	case core.NewBetterBranch:
		if len(classification.OldBranch) > 0 {
			r.txpool.AddTransactions(txpool.TxSet(classification.OldBranch))
			r.ommers.AddOmmers(classification.OldBranch[0].Header())
		}
		return blocks

	case core.NoChainSwitch:
		r.ommers.AddOmmers(blocks[0].Header())
		r.fetcher.InvalidateBlocksFrom(blocks[0].NumberU64(), "no progress on chain", false)
		return nil

	case core.UnknownBranch:
		from := safeSub(blocks[0].NumberU64(), r.lookback)
		r.fetcher.InvalidateBlocksFrom(from, "unknown branch", true)
		return nil

	case core.InvalidBranch:
		r.fetcher.InvalidateBlocksFrom(blocks[0].NumberU64(), "invalid branch", true)
		return nil

	default:
		r.log.Error("Unhandled branch classification", "kind", classification.Kind)
		return nil
	}
}

func safeSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
