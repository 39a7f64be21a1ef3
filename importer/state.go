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

// Package importer implements the block importer: the control loop
// that decides, per block or batch, whether to extend the chain,
// enqueue, reorganise, discard, or repair missing state, keeping the
// ommer pool, tx pool and broadcaster coherent with that decision.
package importer

// State describes whether the importer believes it is at chain tip
// and whether an import is currently in flight. It is an immutable
// value: every transition returns a new State rather than mutating
// the receiver, so the single-writer invariant on the actor's own
// copy is easy to see at each call site.
type State struct {
	onTip     bool
	importing bool
}

// OnTip reports the importer's current sync-tip belief.
func (s State) OnTip() bool { return s.onTip }

// Importing reports whether an import future is currently in flight.
func (s State) Importing() bool { return s.importing }

// SetOnTip records that the fetcher signalled it has caught up.
func (s State) SetOnTip() State { return State{onTip: true, importing: s.importing} }

// ClearOnTip records that the fetcher signalled it fell behind again.
func (s State) ClearOnTip() State { return State{onTip: false, importing: s.importing} }

// BeginImport marks an import as in flight. At most one import may be
// in flight per importer: callers must check Importing() first.
func (s State) BeginImport() State { return State{onTip: s.onTip, importing: true} }

// EndImport clears the in-flight flag on completion.
func (s State) EndImport() State { return State{onTip: s.onTip, importing: false} }

// ReadyForSingleBlock reports whether a mined or peer-broadcast
// single-block import may be accepted: on_tip ∧ ¬importing.
func (s State) ReadyForSingleBlock() bool { return s.onTip && !s.importing }
