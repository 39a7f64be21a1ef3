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

// Package types defines the block, header and transaction shapes the
// importer treats as opaque, per the accessor contract it is built
// against: number(b), header(b), body.transactions(b), body.uncles(b).
package types

import (
	"math/big"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/holiman/uint256"
)

// Header carries the minimum fields the importer and its branch
// resolver need to reason about chain linkage and weight.
type Header struct {
	ParentHash common.Hash
	Number     *big.Int
	Difficulty *big.Int
	Time       uint64
	Coinbase   common.Address
}

// Hash returns the keccak256 digest of the header's canonical fields.
// It is deliberately not RLP-accurate; the importer only needs it to
// be stable and collision-free for test fixtures.
func (h *Header) Hash() common.Hash {
	buf := make([]byte, 0, 96)
	buf = append(buf, h.ParentHash.Bytes()...)
	if h.Number != nil {
		buf = append(buf, h.Number.Bytes()...)
	}
	if h.Difficulty != nil {
		buf = append(buf, h.Difficulty.Bytes()...)
	}
	buf = append(buf, h.Coinbase[:]...)
	return common.Keccak256Hash(buf)
}

// Transaction is opaque to the importer beyond identity.
type Transaction struct {
	hash common.Hash
	from common.Address
}

// NewTransaction builds a transaction identified by an explicit hash,
// letting tests construct distinguishable fixtures without a real
// signing/RLP pipeline.
func NewTransaction(hash common.Hash, from common.Address) *Transaction {
	return &Transaction{hash: hash, from: from}
}

func (tx *Transaction) Hash() common.Hash    { return tx.hash }
func (tx *Transaction) From() common.Address { return tx.from }

// Transactions is a comparable-by-identity sequence of transactions.
type Transactions []*Transaction

// Block pairs a header with its body. Construction is immutable once
// built: callers that need a modified block build a new one.
type Block struct {
	header *Header
	txs    Transactions
	uncles []*Header
}

// NewBlock copies its header and body, matching the teacher's
// defensive-copy convention for block construction.
func NewBlock(header *Header, txs Transactions, uncles []*Header) *Block {
	b := &Block{header: copyHeader(header)}
	if len(txs) > 0 {
		b.txs = make(Transactions, len(txs))
		copy(b.txs, txs)
	}
	if len(uncles) > 0 {
		b.uncles = make([]*Header, len(uncles))
		for i, u := range uncles {
			b.uncles[i] = copyHeader(u)
		}
	}
	return b
}

func copyHeader(h *Header) *Header {
	cpy := *h
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	return &cpy
}

func (b *Block) Header() *Header            { return b.header }
func (b *Block) Number() *big.Int           { return b.header.Number }
func (b *Block) NumberU64() uint64          { return b.header.Number.Uint64() }
func (b *Block) ParentHash() common.Hash    { return b.header.ParentHash }
func (b *Block) Difficulty() *big.Int       { return b.header.Difficulty }
func (b *Block) Transactions() Transactions { return b.txs }
func (b *Block) Uncles() []*Header          { return b.uncles }
func (b *Block) Hash() common.Hash          { return b.header.Hash() }

// WithTD pairs the block with a total difficulty, the shape
// BroadcastBlocks and ImportedToTop/Reorganised carry per spec.
type WithTD struct {
	Block *Block
	TD    *uint256.Int
}
