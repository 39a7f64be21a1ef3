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
	"errors"

	"github.com/blocksync-labs/goimporter/common"
	"github.com/blocksync-labs/goimporter/core"
	"github.com/blocksync-labs/goimporter/core/types"
)

// FaultKind tags why a batch stopped short of importing every block.
type FaultKind int

const (
	// FaultMissingStateNode is recoverable: the caller should request
	// the node and retry BlocksToRetry.
	FaultMissingStateNode FaultKind = iota
	// FaultOther covers UnknownParent/Failed: the caller should
	// invalidate the fetcher's queue from FailingBlock and resume.
	FaultOther
)

// Fault describes why BatchImporter.ImportBatch stopped early.
type Fault struct {
	Kind          FaultKind
	Hash          common.Hash
	Reason        string
	FailingBlock  *types.Block
	BlocksToRetry []*types.Block
}

// BatchImporter walks an ordered batch of blocks through the ledger,
// per spec.md §4.3.
type BatchImporter struct {
	ledger     Ledger
	redownload bool
}

// NewBatchImporter wires a batch importer. redownload mirrors the
// redownload_missing_state_nodes configuration flag: when false a
// missing trie node is a catastrophic error rather than a Fault.
func NewBatchImporter(ledger Ledger, redownload bool) *BatchImporter {
	return &BatchImporter{ledger: ledger, redownload: redownload}
}

// ImportBatch imports blocks strictly in order. The returned slice
// carries every block the ledger adopted, paired with its total
// difficulty, accumulated per spec.md §4.3's tie-break rule: a
// Reorganised outcome prepends its reversed new branch ahead of
// everything imported so far, so the list is newest-first at each
// reorg boundary while still preserving overall adoption order. A
// non-nil error means a catastrophic ledger failure unrelated to
// block validity; the caller must treat the actor itself as faulted.
func (bi *BatchImporter) ImportBatch(blocks []*types.Block) (imported []types.WithTD, fault *Fault, err error) {
	for i, b := range blocks {
		outcome, ierr := bi.ledger.ImportBlock(b)
		if ierr != nil {
			var missing *core.MissingStateNodeError
			if errors.As(ierr, &missing) {
				if !bi.redownload {
					return imported, nil, ierr
				}
				return imported, &Fault{
					Kind:          FaultMissingStateNode,
					Hash:          missing.Hash,
					FailingBlock:  b,
					BlocksToRetry: blocks[i:],
				}, nil
			}
			return imported, nil, ierr
		}

		switch outcome.Kind {
		case core.ImportedToTop:
			imported = append(imported, outcome.Chain...)

		case core.Reorganised:
			reversed := make([]types.WithTD, len(outcome.NewTDs))
			for i, nb := range outcome.NewTDs {
				reversed[len(reversed)-1-i] = nb
			}
			imported = append(reversed, imported...)

		case core.Duplicate, core.Enqueued:
			// no append, continue

		case core.UnknownParent:
			return imported, &Fault{Kind: FaultOther, Reason: "unknown parent", FailingBlock: b}, nil

		case core.Failed:
			reason := "import failed"
			if outcome.Err != nil {
				reason = outcome.Err.Error()
			}
			return imported, &Fault{Kind: FaultOther, Reason: reason, FailingBlock: b}, nil
		}
	}
	return imported, nil, nil
}

// Blocks extracts the plain block list from a WithTD accumulator, for
// callers that only need pool-synchronisation (no TD required).
func Blocks(withTD []types.WithTD) []*types.Block {
	out := make([]*types.Block, len(withTD))
	for i, w := range withTD {
		out[i] = w.Block
	}
	return out
}
