// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// getCallFromCallBBlock returns b's call node if b is a call-block (its
// sole, or at least first, node is a call targeting one or more
// defined subgraphs), or nil otherwise. It only inspects the block's
// first node, which is safe as long as no MU node has been prepended
// ahead of the call.
func getCallFromCallBBlock(b *rwgraph.BBlock) *rwgraph.Node {
	first := b.First()
	if first == nil || first.Kind() != rwgraph.Call {
		return nil
	}
	if !first.Call().CallsDefined() {
		return nil
	}
	return first
}

// isCallBlock reports whether b's first node is a call to a defined
// subgraph -- used by findDefinitionsFromCalledFun to sanity-check
// every caller call-site it crosses into.
func isCallBlock(b *rwgraph.BBlock) bool {
	return getCallFromCallBBlock(b) != nil
}

// findDefinitionsFromCall synthesizes, for each byte range of ds still
// uncovered in D, a phi merging the definitions reaching the exit of
// every subgraph C may call: one outer phi appended to C's block, and
// one per-callee phi registered as that subgraph's output summary and
// fed by every exit block (block with no successors) of the callee.
func (t *Transformation) findDefinitionsFromCall(D *BlockDefinitions, call *rwgraph.Node, ds rwgraph.DefSite) {
	for _, iv := range D.Uncovered(ds) {
		uds := rwgraph.DefSite{Target: ds.Target, Offset: iv.Start, Length: iv.Length}

		phi := t.createPhi(D, uds)
		call.BBlock().Append(phi)

		for _, callee := range call.Call().Callees() {
			subgphi := t.newPhi(uds)
			summary := t.getSubgraphSummary(callee)
			summary.addOutput(subgphi)

			phi.DefUse().Add(subgphi)

			for _, subgblock := range callee.BBlocks() {
				if subgblock.HasSuccessors() {
					continue
				}
				subgphi.DefUse().AddAll(t.findDefinitionsAt(subgblock, uds))
			}
		}
	}
}

// findDefinitionsFromCalledFun registers phi as reached from every
// call-site of subg, crossing the interprocedural boundary the other
// way: phi (a subgraph-entry Phi, already recorded as subg's input
// summary) collects, for each caller, whatever findDefinitionsInPredecessors
// finds reaching that call-block.
func (t *Transformation) findDefinitionsFromCalledFun(phi *rwgraph.Node, subg *rwgraph.Subgraph, ds rwgraph.DefSite) {
	for _, callsite := range subg.Callers() {
		bblock := callsite.BBlock()
		if bblock == nil || !isCallBlock(bblock) {
			panic("memssa: call-site is not the sole occupant of its own call block")
		}
		phi.DefUse().AddAll(t.findDefinitionsInPredecessors(bblock, ds))
	}
}
