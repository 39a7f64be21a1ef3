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

package core

import (
	"fmt"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core/types"
)

// OutcomeKind tags the variant carried by an Outcome. Go has no sum
// types, so the importer matches on this discriminator the way the
// teacher's code switches on packet/event types.
type OutcomeKind int

const (
	ImportedToTop OutcomeKind = iota
	Enqueued
	Duplicate
	UnknownParent
	Reorganised
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case ImportedToTop:
		return "ImportedToTop"
	case Enqueued:
		return "Enqueued"
	case Duplicate:
		return "Duplicate"
	case UnknownParent:
		return "UnknownParent"
	case Reorganised:
		return "Reorganised"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Outcome is the result of importing a single block. Only the fields
// relevant to Kind are populated; callers switch on Kind first.
type Outcome struct {
	Kind OutcomeKind

	// ImportedToTop: the adopted chain, oldest first, ending at the
	// newly imported block.
	Chain []types.WithTD

	// Reorganised: the displaced branch (newest first, starting at the
	// old head), the newly adopted branch (oldest first) and its
	// matching total-difficulty list.
	OldBranch []*types.Block
	NewBranch []*types.Block
	NewTDs    []types.WithTD

	// Failed: the validation/execution error.
	Err error
}

// MissingStateNodeError signals a recoverable trie-node fault raised
// out of band from ImportBlock, per spec.md's MissingStateNode variant.
type MissingStateNodeError struct {
	Hash common.Hash
}

func (e *MissingStateNodeError) Error() string {
	return fmt.Sprintf("missing trie node %s", e.Hash)
}

// BranchKind tags the result of resolving a candidate header sequence
// against the canonical chain.
type BranchKind int

const (
	NewBetterBranch BranchKind = iota
	NoChainSwitch
	UnknownBranch
	InvalidBranch
)

// BranchClassification is the ledger's verdict on a candidate branch.
type BranchClassification struct {
	Kind BranchKind

	// NewBetterBranch only: the branch being displaced, oldest first.
	OldBranch []*types.Block
}
