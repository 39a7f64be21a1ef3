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
	"github.com/blocksync-labs/goimporter/core/txpool"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/ommerpool"
)

// PoolSynchronizer applies the side effects of an import outcome to
// the ommer pool and the pending-tx pool, per spec.md §4.5.
//
// Only the tip of a displaced branch can contribute an ommer header to
// the next block; deeper displaced blocks cannot, so only the head is
// offered.
type PoolSynchronizer struct {
	ommers *ommerpool.Pool
	txpool *txpool.Pool
}

// NewPoolSynchronizer wires a synchronizer against its pools.
func NewPoolSynchronizer(ommers *ommerpool.Pool, txs *txpool.Pool) *PoolSynchronizer {
	return &PoolSynchronizer{ommers: ommers, txpool: txs}
}

// Apply reconciles the pools after added has been adopted and removed
// has been displaced.
func (s *PoolSynchronizer) Apply(added, removed []*types.Block) {
	if len(removed) > 0 {
		s.ommers.AddOmmers(removed[0].Header())
	}
	if len(removed) > 0 {
		s.txpool.AddTransactions(txpool.TxSet(removed))
	}
	for _, b := range added {
		stale := append([]*types.Header{b.Header()}, b.Uncles()...)
		s.ommers.RemoveOmmers(stale)
		s.txpool.RemoveTransactions(b.Transactions())
	}
}
