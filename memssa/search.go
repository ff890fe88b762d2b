// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// addFoundDefinitions appends found to defs, substituting D's
// unknownWrites when found is empty: a write to unknown memory may
// have defined any byte, so it is the remaining candidate whenever
// nothing concrete was found.
func addFoundDefinitions(defs []*rwgraph.Node, found []*rwgraph.Node, D *BlockDefinitions) []*rwgraph.Node {
	if len(found) == 0 {
		return append(defs, D.UnknownWrites()...)
	}
	return append(defs, found...)
}

// findDefinitions is the entry point for a use: it resolves every
// DefSite in use.Uses(), descending into predecessors for whatever
// part of the query the block itself does not cover.
func (t *Transformation) findDefinitions(use *rwgraph.Node) []*rwgraph.Node {
	if use.UsesUnknown() {
		return t.findAllReachingDefinitions(use)
	}

	block := use.BBlock()
	if block == nil {
		return nil
	}

	D := findDefinitionsInBlock(use)

	var defs []*rwgraph.Node
	for _, ds := range use.Uses() {
		if ds.Target == nil {
			panic("memssa: use DefSite has a nil target")
		}

		found := D.definitions.Get(ds)
		defs = addFoundDefinitions(defs, found, D)

		for _, iv := range D.Uncovered(ds) {
			uds := rwgraph.DefSite{Target: ds.Target, Offset: iv.Start, Length: iv.Length}
			defs = append(defs, t.findDefinitionsInPredecessors(block, uds)...)
		}
	}
	return defs
}

// Uncovered exposes BlockDefinitions' uncovered-byte query against its
// own (not yet LVN-closed) definitions map, used by findDefinitions
// above on the partial map findDefinitionsInBlock returns.
func (d *BlockDefinitions) Uncovered(ds rwgraph.DefSite) []rwgraph.Interval {
	return d.definitions.Uncovered(ds)
}

// findDefinitionsInPredecessors resolves ds in block's predecessors,
// creating Phi nodes where needed.
func (t *Transformation) findDefinitionsInPredecessors(block *rwgraph.BBlock, ds rwgraph.DefSite) []*rwgraph.Node {
	if ds.Target.IsUnknown() {
		panic("memssa: findDefinitionsInPredecessors called with the unknown target")
	}

	var defs []*rwgraph.Node

	if pred := block.SinglePredecessor(); pred != nil {
		pdefs := t.findDefinitionsAt(pred, ds)
		D := t.getBBlockDefinitions(pred, &ds)

		defs = addFoundDefinitions(defs, pdefs, D)

		for _, iv := range D.definitions.Uncovered(ds) {
			uds := rwgraph.DefSite{Target: ds.Target, Offset: iv.Start, Length: iv.Length}
			defs = append(defs, t.findDefinitionsInPredecessors(pred, uds)...)
		}
		return defs
	}

	var phi *rwgraph.Node
	if block.HasPredecessors() {
		phi = t.createAndPlacePhi(block, ds)
		t.findPhiDefinitions(phi)
	} else {
		phi = t.createPhi(t.getBBlockDefinitions(block, &ds), ds)
		subg := block.Subgraph()
		summary := t.getSubgraphSummary(subg)
		summary.addInput(phi)
		t.findDefinitionsFromCalledFun(phi, subg, ds)
	}

	return append(defs, phi)
}

// findPhiDefinitions resolves phi's operands, one per predecessor of
// its own block, once the phi is already linked into the block (and
// therefore discoverable by any cyclic search that loops back through
// it, which is what terminates the recursion).
func (t *Transformation) findPhiDefinitions(phi *rwgraph.Node) {
	block := phi.BBlock()
	if block.SinglePredecessor() != nil {
		panic("memssa: phi placed in a block with a single predecessor")
	}

	ds := phi.Overwrites()[0]
	for _, pred := range block.Preds() {
		phi.DefUse().AddAll(t.findDefinitionsAt(pred, ds))
	}
}

// findDefinitionsAt is the per-block, cache-aware query: it returns
// ds's definitions as seen from the end of block, consulting the
// cached reaching-definitions map when one exists.
func (t *Transformation) findDefinitionsAt(block *rwgraph.BBlock, ds rwgraph.DefSite) []*rwgraph.Node {
	if block == nil {
		return nil
	}
	if ds.Target == nil {
		panic("memssa: DefSite has a nil target")
	}

	if t.hasCachedDefinitions(block) {
		return t.getCachedDefinitions(block).Get(ds)
	}

	D := t.getBBlockDefinitions(block, &ds)

	found := D.definitions.Get(ds)
	defs := addFoundDefinitions(nil, found, D)

	for _, iv := range D.definitions.Uncovered(ds) {
		uds := rwgraph.DefSite{Target: ds.Target, Offset: iv.Start, Length: iv.Length}
		defs = append(defs, t.findDefinitionsInPredecessors(block, uds)...)
	}
	return defs
}
