// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// findAllReachingDefinitions answers a read of the Unknown target: an
// interval-indexed result would be meaningless, so it DFS-walks every
// predecessor and returns the full set of writes reachable on any
// path.
func (t *Transformation) findAllReachingDefinitions(from *rwgraph.Node) []*rwgraph.Node {
	block := from.BBlock()
	if block == nil {
		panic("memssa: the node has no block")
	}

	visited := newBlockSet()
	D := findDefinitionsInBlock(from)

	// NOTE: do not add block to visited -- it may be its own
	// predecessor (a self-loop), in which case it must still be
	// processed once on the way back in.
	predDefs := newDefinitionsMap()
	if pred := block.SinglePredecessor(); pred != nil {
		t.reachingFromPredecessor(predDefs, pred, visited)
		t.setCachedDefinitions(pred, predDefs)
	} else {
		for _, pred := range block.Preds() {
			tmp := newDefinitionsMap()
			tmp.Merge(D.kills)
			t.reachingFromPredecessor(tmp, pred, visited)
			predDefs.Merge(tmp)
		}
	}

	joinDefinitions(predDefs, D.definitions)

	found := newNodeSet()
	for _, tgt := range D.definitions.Targets() {
		for _, e := range D.definitions.intervalMap(tgt).entries {
			for _, v := range e.vals {
				found.Add(v)
			}
		}
	}

	return gatherNonPhisDefs(found.Slice())
}

// reachingFromPredecessor accumulates into defs the definitions
// reaching the end of from, recursing through from's own predecessors;
// visited guards against infinite recursion on cyclic CFGs.
func (t *Transformation) reachingFromPredecessor(defs *DefinitionsMap, from *rwgraph.BBlock, visited *blockSet) {
	if from == nil {
		return
	}

	if visited.Has(from) {
		joinDefinitions(t.getCachedDefinitions(from), defs)
		return
	}
	visited.Add(from)

	if t.hasCachedDefinitions(from) {
		joinDefinitions(t.getCachedDefinitions(from), defs)
		return
	}

	D := t.getBBlockDefinitions(from, nil)
	joinDefinitions(D.definitions, defs)

	if pred := from.SinglePredecessor(); pred != nil {
		t.reachingFromPredecessor(defs, pred, visited)
		return
	}

	for _, pred := range from.Preds() {
		tmp := newDefinitionsMap()
		tmp.Merge(defs)
		t.reachingFromPredecessor(tmp, pred, visited)
		defs.Merge(tmp)
	}
}

// gatherNonPhisDefs flattens every phi in nodes into the non-phi
// definitions it (transitively) merges, deduplicated. This is the only
// place phi nodes are stripped from a result: it backs both
// Transformation.GetDefinitions and findAllReachingDefinitions.
func gatherNonPhisDefs(nodes []*rwgraph.Node) []*rwgraph.Node {
	visitedPhis := newNodeSet()
	ret := newNodeSet()
	for _, n := range nodes {
		if n.Kind() != rwgraph.Phi {
			ret.Add(n)
		} else {
			recGatherNonPhisDefs(n, visitedPhis, ret)
		}
	}
	return ret.Slice()
}

func recGatherNonPhisDefs(phi *rwgraph.Node, visitedPhis, ret *nodeSet) {
	if visitedPhis.Has(phi) {
		return
	}
	visitedPhis.Add(phi)

	for _, n := range phi.DefUse().Nodes() {
		if n.Kind() != rwgraph.Phi {
			ret.Add(n)
		} else {
			recGatherNonPhisDefs(n, visitedPhis, ret)
		}
	}
}
