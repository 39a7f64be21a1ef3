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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/txpool"
	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/ommerpool"
)

func TestPoolSynchronizerRemovedContributesOmmerAndReleasesTxs(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	ommers := ommerpool.New()
	txs := txpool.New()
	sync := NewPoolSynchronizer(ommers, txs)

	displaced := newTestChain(2, genesis, 1)
	tx := types.NewTransaction(common.BytesToHash([]byte("tx1")), common.Address{})
	displaced[0] = types.NewBlock(displaced[0].Header(), types.Transactions{tx}, nil)

	sync.Apply(nil, displaced)

	assert.True(t, ommers.Has(displaced[0].Hash()), "only the displaced branch's head becomes an ommer candidate")
	assert.False(t, ommers.Has(displaced[1].Hash()))

	pending := txs.Pending()
	if assert.Len(t, pending, 1) {
		assert.Same(t, tx, pending[0])
	}
}

func TestPoolSynchronizerAddedRemovesOwnAndUncleOmmers(t *testing.T) {
	genesis := newTestBlock(0, [32]byte{}, 0, 0)
	ommers := ommerpool.New()
	txs := txpool.New()
	sync := NewPoolSynchronizer(ommers, txs)

	uncle := newTestBlock(1, genesis.Hash(), 1, 9)
	sibling := newTestBlock(2, genesis.Hash(), 1, 8)
	ommers.AddOmmers(uncle.Header(), sibling.Header())

	tx := types.NewTransaction(common.BytesToHash([]byte("tx2")), common.Address{})
	added := types.NewBlock(sibling.Header(), types.Transactions{tx}, []*types.Header{uncle.Header()})
	txs.AddTransactions(txpool.TxSet([]*types.Block{added}))

	sync.Apply([]*types.Block{added}, nil)

	assert.False(t, ommers.Has(uncle.Hash()), "an uncle referenced by an adopted block is no longer a candidate")
	assert.False(t, ommers.Has(sibling.Hash()), "a block's own header leaves the ommer pool once it is itself adopted")
	assert.Empty(t, txs.Pending(), "a transaction included in an adopted block leaves the pool")
}

func TestPoolSynchronizerNoRemovedIsNoop(t *testing.T) {
	ommers := ommerpool.New()
	txs := txpool.New()
	sync := NewPoolSynchronizer(ommers, txs)

	sync.Apply(nil, nil)

	assert.Empty(t, ommers.Ommers())
	assert.Empty(t, txs.Pending())
}
