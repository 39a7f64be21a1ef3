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

// Package txpool is the pending-transaction pool collaborator: it
// tracks the set of transactions waiting to be mined, independent of
// how they arrived (broadcast, mined-and-displaced, reorg-bound).
package txpool

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
)

// Pool is a coarse-mutex-guarded pending transaction set, mirroring
// the teacher's own txpool locking idiom rather than attempting a
// lock-free structure the importer doesn't need.
type Pool struct {
	mu      sync.Mutex
	pending map[common.Hash]*types.Transaction
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{pending: make(map[common.Hash]*types.Transaction)}
}

// AddTransactions returns a set of transactions to pending status, the
// wire contract's AddTransactions(set<tx>) per spec.md §6.
func (p *Pool) AddTransactions(txs mapset.Set[*types.Transaction]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	txs.Each(func(tx *types.Transaction) bool {
		p.pending[tx.Hash()] = tx
		return false
	})
}

// RemoveTransactions drops transactions from pending, in the order
// given (order is irrelevant to the map but kept for call-site parity
// with the teacher's RemoveTransactions(seq<tx>) contract).
func (p *Pool) RemoveTransactions(txs []*types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		delete(p.pending, tx.Hash())
	}
}

// Pending returns a snapshot of pending transactions.
func (p *Pool) Pending() []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*types.Transaction, 0, len(p.pending))
	for _, tx := range p.pending {
		out = append(out, tx)
	}
	return out
}

// TxSet builds the mapset the importer's pool-sync step hands to
// AddTransactions from a flattened slice of blocks' transactions.
func TxSet(blocks []*types.Block) mapset.Set[*types.Transaction] {
	set := mapset.NewThreadUnsafeSet[*types.Transaction]()
	for _, b := range blocks {
		for _, tx := range b.Transactions() {
			set.Add(tx)
		}
	}
	return set
}
