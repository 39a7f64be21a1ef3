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

package ommerpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blocksync-labs/goimporter/core/types"
)

func header(seed byte) *types.Header {
	return &types.Header{Number: big.NewInt(1), Difficulty: big.NewInt(1), Coinbase: [20]byte{seed}}
}

func TestAddAndHasOmmer(t *testing.T) {
	p := New()
	h := header(1)

	p.AddOmmers(h)

	assert.True(t, p.Has(h.Hash()))
}

func TestRemoveOmmer(t *testing.T) {
	p := New()
	h := header(1)
	p.AddOmmers(h)

	p.RemoveOmmers([]*types.Header{h})

	assert.False(t, p.Has(h.Hash()))
}

func TestAddOmmersSkipsNil(t *testing.T) {
	p := New()

	p.AddOmmers(nil, header(1))

	assert.Len(t, p.Ommers(), 1)
}

func TestOmmersReturnsAllHeld(t *testing.T) {
	p := New()
	h1, h2 := header(1), header(2)
	p.AddOmmers(h1, h2)

	ommers := p.Ommers()

	assert.Len(t, ommers, 2)
}
