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
	"context"
	"time"

	"github.com/blocksync-labs/goimporter/core/types"
	"github.com/blocksync-labs/goimporter/fetcher"
	"github.com/blocksync-labs/goimporter/internal/glog"
)

// phase names the outer states of spec.md §4.6: Idle, Running, and
// ResolvingMissingNode. Go has no behavior-swapping receive function
// the way an actor framework does, so the event loop switches on this
// explicit enum instead — the rendering spec.md §9 calls for.
type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseResolvingMissingNode
)

// Config carries the options the actor reads from spec.md §6.
type Config struct {
	BatchSize                   int
	SyncRetryInterval           time.Duration
	BranchResolutionRequestSize uint64
	RedownloadMissingStateNodes bool
}

// Actor is the outer import control loop: a single goroutine with one
// inbox channel, processing exactly one message at a time. All
// mutation of State happens here and nowhere else, preserving the
// single-writer invariant spec.md §5 requires even though the ledger
// call it awaits runs on another goroutine.
type Actor struct {
	ledger    Ledger
	saver     NodeSaver
	fetcher   fetcher.Fetcher
	resolver  *BranchResolver
	batch     *BatchImporter
	single    *SingleBlockImporter
	cfg       Config
	log       *glog.Logger

	inbox      chan event
	deliveries chan fetcher.Delivery

	state         State
	phase         phase
	blocksToRetry []*types.Block
}

// NewActor wires an actor against its collaborators. deliveries is
// the channel the caller's Fetcher implementation posts
// PickedBlocks/FetchedStateNode deliveries onto.
func NewActor(ledger Ledger, saver NodeSaver, f fetcher.Fetcher, resolver *BranchResolver, batch *BatchImporter, single *SingleBlockImporter, deliveries chan fetcher.Delivery, cfg Config, log *glog.Logger) *Actor {
	return &Actor{
		ledger:     ledger,
		saver:      saver,
		fetcher:    f,
		resolver:   resolver,
		batch:      batch,
		single:     single,
		cfg:        cfg,
		log:        log,
		inbox:      make(chan event, 64),
		deliveries: deliveries,
		phase:      phaseIdle,
	}
}

// Start enqueues the Start event that moves the actor out of Idle.
func (a *Actor) Start() { a.inbox <- Start{} }

// OnTip enqueues the fetcher's caught-up-to-tip signal.
func (a *Actor) OnTip() { a.inbox <- OnTip{} }

// NotOnTip enqueues the fetcher's fallen-behind signal.
func (a *Actor) NotOnTip() { a.inbox <- NotOnTop{} }

// SubmitMinedBlock enqueues a locally mined block.
func (a *Actor) SubmitMinedBlock(b *types.Block) { a.inbox <- MinedBlock{Block: b} }

// SubmitBroadcastBlock enqueues a peer-broadcast single block.
func (a *Actor) SubmitBroadcastBlock(b *types.Block, peer string) {
	a.inbox <- ImportNewBlock{Block: b, Peer: peer}
}

// State exposes the actor's current belief, for tests and metrics.
func (a *Actor) State() State { return a.state }

// Run drives the event loop until ctx is cancelled. It is meant to be
// run on its own goroutine; all other methods on Actor only ever
// enqueue onto the inbox and never touch State directly.
func (a *Actor) Run(ctx context.Context) {
	go a.forwardDeliveries(ctx)

	timer := time.NewTimer(a.cfg.SyncRetryInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-a.inbox:
			a.dispatch(ev)
			if a.phase == phaseRunning {
				resetTimer(timer, a.cfg.SyncRetryInterval)
			}

		case <-timer.C:
			if a.phase == phaseRunning {
				a.dispatch(Tick{})
			}
			resetTimer(timer, a.cfg.SyncRetryInterval)
		}
	}
}

// forwardDeliveries funnels the fetcher's inbound messages onto the
// actor's own inbox, so they interleave with producer events under
// the same single-writer rule rather than racing to mutate State.
func (a *Actor) forwardDeliveries(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-a.deliveries:
			switch v := d.(type) {
			case fetcher.PickedBlocks:
				a.inbox <- PickedBlocks{Blocks: v.Blocks}
			case fetcher.FetchedStateNode:
				a.inbox <- FetchedStateNode{Nodes: v.Nodes}
			}
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (a *Actor) dispatch(ev event) {
	switch a.phase {
	case phaseIdle:
		if _, ok := ev.(Start); ok {
			a.handleStart()
		}

	case phaseRunning:
		a.handleRunning(ev)

	case phaseResolvingMissingNode:
		if fsn, ok := ev.(FetchedStateNode); ok {
			a.handleFetchedStateNode(fsn)
		}
	}
}

func (a *Actor) handleStart() {
	a.fetcher.Start(a.ledger.CurrentBlock().NumberU64() + 1)
	a.state = State{}
	a.phase = phaseRunning
}

func (a *Actor) handleRunning(ev event) {
	switch e := ev.(type) {
	case OnTip:
		a.state = a.state.SetOnTip()

	case NotOnTop:
		a.state = a.state.ClearOnTip()

	case Tick:
		a.fetcher.PickBlocks(a.cfg.BatchSize)

	case PickedBlocks:
		a.beginBatch(e.Blocks)

	case MinedBlock:
		if a.state.ReadyForSingleBlock() {
			a.state = a.state.BeginImport()
			go a.runSingle(func() error { return a.single.ImportMined(e.Block) })
		} else {
			a.resolver.ommers.AddOmmers(e.Block.Header())
		}

	case ImportNewBlock:
		if a.state.ReadyForSingleBlock() {
			a.state = a.state.BeginImport()
			go a.runSingle(func() error { return a.single.ImportBroadcast(e.Block, e.Peer) })
		}
		// else: drop silently, per spec.md invariant 3.

	case FetchedStateNode:
		// A stray delivery outside ResolvingMissingNode; nothing to
		// resume, so just log and discard.
		a.log.Debug("Discarding unexpected state node delivery while Running")

	case importDone:
		a.state = a.state.EndImport()
		a.phase = phaseFromBehavior(e.next)
		if e.next == behaviorResolvingMissingNode {
			a.blocksToRetry = e.blocksToRetry
		}
	}
}

func phaseFromBehavior(b behaviorKind) phase {
	if b == behaviorResolvingMissingNode {
		return phaseResolvingMissingNode
	}
	return phaseRunning
}

// beginBatch runs the branch resolver and, if it yields blocks, the
// batch importer, on a background goroutine. State mutation on
// completion is deferred to the importDone message per spec.md §5.
func (a *Actor) beginBatch(blocks []*types.Block) {
	a.state = a.state.BeginImport()
	go func() {
		resolved := a.resolver.Resolve(blocks)
		if len(resolved) == 0 {
			a.fetcher.PickBlocks(a.cfg.BatchSize)
			a.inbox <- importDone{next: behaviorRunning}
			return
		}
		a.finishBatch(resolved)
	}()
}

func (a *Actor) finishBatch(blocks []*types.Block) {
	imported, fault, err := a.batch.ImportBatch(blocks)
	if err != nil {
		a.log.Crit("Catastrophic ledger failure during batch import", "err", err)
		return
	}

	if len(imported) > 0 {
		plain := Blocks(imported)
		a.single.sync.Apply(plain, nil)
		a.single.broadcaster.BroadcastBlocks(imported)
	}

	if fault == nil {
		a.fetcher.PickBlocks(a.cfg.BatchSize)
		a.inbox <- importDone{next: behaviorRunning}
		return
	}

	switch fault.Kind {
	case FaultMissingStateNode:
		a.fetcher.FetchStateNode(fault.Hash)
		a.inbox <- importDone{next: behaviorResolvingMissingNode, blocksToRetry: fault.BlocksToRetry}

	case FaultOther:
		a.fetcher.InvalidateBlocksFrom(fault.FailingBlock.NumberU64(), fault.Reason, true)
		a.fetcher.PickBlocks(a.cfg.BatchSize)
		a.inbox <- importDone{next: behaviorRunning}
	}
}

func (a *Actor) handleFetchedStateNode(fsn FetchedStateNode) {
	hash, data, ok := firstNode(fsn)
	if !ok {
		return
	}
	if len(a.blocksToRetry) == 0 {
		a.log.Error("FetchedStateNode received with no blocks to retry")
		a.phase = phaseRunning
		return
	}
	firstNumber := a.blocksToRetry[0].NumberU64()
	if err := a.saver.SaveNode(hash, data, firstNumber); err != nil {
		a.log.Error("Failed to persist fetched state node", "hash", hash, "err", err)
	}
	retry := a.blocksToRetry
	a.blocksToRetry = nil
	a.state = a.state.BeginImport()
	a.phase = phaseRunning
	go a.finishBatch(retry)
}

func firstNode(fsn FetchedStateNode) (h [32]byte, data []byte, ok bool) {
	for hash, bytes := range fsn.Nodes {
		return hash, bytes, true
	}
	return h, nil, false
}

// runSingle awaits a single-block import and reports completion back
// through the inbox, clearing the importing flag without ever
// touching State from this goroutine directly.
func (a *Actor) runSingle(f func() error) {
	if err := f(); err != nil {
		a.log.Crit("Catastrophic ledger failure during single block import", "err", err)
		return
	}
	a.inbox <- importDone{next: behaviorRunning}
}
