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

// Package broadcaster fans newly adopted blocks out to subscribers,
// standing in for the real peer broadcast the devp2p wire protocol
// would perform.
package broadcaster

import (
	"sync"

	"github.com/blocksync-labs/goimporter/core/types"
)

// Broadcaster is the collaborator the importer tells about newly
// adopted chains, per spec.md §6's BroadcastBlocks message.
type Broadcaster interface {
	BroadcastBlocks(chain []types.WithTD)
}

// Fanout delivers each BroadcastBlocks call to every subscriber
// channel registered at the time of the call. Subscribers that are
// not reading are skipped rather than blocking the importer, since a
// slow peer must never stall chain import.
type Fanout struct {
	mu   sync.Mutex
	subs map[chan []types.WithTD]struct{}
}

// NewFanout returns an empty fan-out broadcaster.
func NewFanout() *Fanout {
	return &Fanout{subs: make(map[chan []types.WithTD]struct{})}
}

// Subscribe registers ch to receive future broadcasts. Unsubscribe
// with the returned function when done.
func (f *Fanout) Subscribe(ch chan []types.WithTD) (unsubscribe func()) {
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

// BroadcastBlocks implements Broadcaster.
func (f *Fanout) BroadcastBlocks(chain []types.WithTD) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- chain:
		default:
		}
	}
}

var _ Broadcaster = (*Fanout)(nil)
