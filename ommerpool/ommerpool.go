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

// Package ommerpool tracks candidate uncle (ommer) headers: blocks
// whose parent is an ancestor of the current head but which did not
// themselves become canonical. A future block may reference them for
// a reward; until then they sit here bounded by an LRU, since an
// unbounded pool of every losing header a node ever saw is an
// operational hazard.
package ommerpool

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
)

const defaultCapacity = 512

// Pool is an LRU-bounded set of candidate ommer headers keyed by hash.
type Pool struct {
	cache *lru.Cache
}

// New returns a pool with the default capacity.
func New() *Pool {
	c, err := lru.New(defaultCapacity)
	if err != nil {
		// Only fails for a non-positive size, which defaultCapacity never is.
		panic(err)
	}
	return &Pool{cache: c}
}

// AddOmmers offers one or more candidate headers to the pool.
func (p *Pool) AddOmmers(headers ...*types.Header) {
	for _, h := range headers {
		if h == nil {
			continue
		}
		p.cache.Add(h.Hash(), h)
	}
}

// RemoveOmmers drops headers that have since been referenced by a
// canonical block, or that belonged to a block now itself canonical.
func (p *Pool) RemoveOmmers(headers []*types.Header) {
	for _, h := range headers {
		if h == nil {
			continue
		}
		p.cache.Remove(h.Hash())
	}
}

// Ommers returns the headers currently held, most recently used last.
func (p *Pool) Ommers() []*types.Header {
	keys := p.cache.Keys()
	out := make([]*types.Header, 0, len(keys))
	for _, k := range keys {
		v, ok := p.cache.Peek(k)
		if !ok {
			continue
		}
		out = append(out, v.(*types.Header))
	}
	return out
}

// Has reports whether a header with the given hash is currently held.
func (p *Pool) Has(hash common.Hash) bool {
	return p.cache.Contains(hash)
}
