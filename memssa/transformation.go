// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// SubgraphSummary records, for one subgraph, the phis created at its
// entry block (inputs -- used by callers crossing into it) and the
// phis created at its exit blocks (outputs -- used by callers crossing
// out of it).
type SubgraphSummary struct {
	inputs  []*rwgraph.Node
	outputs []*rwgraph.Node
}

// Inputs returns the phis registered as this subgraph's entry-point
// summary, insertion order.
func (s *SubgraphSummary) Inputs() []*rwgraph.Node {
	return s.inputs
}

// Outputs returns the phis registered as this subgraph's exit-point
// summary, insertion order.
func (s *SubgraphSummary) Outputs() []*rwgraph.Node {
	return s.outputs
}

func (s *SubgraphSummary) addInput(phi *rwgraph.Node) {
	s.inputs = append(s.inputs, phi)
}

func (s *SubgraphSummary) addOutput(phi *rwgraph.Node) {
	s.outputs = append(s.outputs, phi)
}

// Transformation is the public entry point: a demand-driven Memory-SSA
// builder bound to one rwgraph.Graph, owning every BlockDefinitions,
// cached reaching-definitions map and SubgraphSummary it creates along
// the way. The Phi/MU nodes themselves are allocated with Graph.Create;
// every phi created is also recorded in phis.
type Transformation struct {
	graph *rwgraph.Graph

	defs       map[*rwgraph.BBlock]*BlockDefinitions
	cachedDefs map[*rwgraph.BBlock]*DefinitionsMap
	summaries  map[*rwgraph.Subgraph]*SubgraphSummary

	phis []*rwgraph.Node
}

// NewTransformation binds a fresh Memory-SSA engine to graph. Call Run
// once before issuing any queries.
func NewTransformation(graph *rwgraph.Graph) *Transformation {
	return &Transformation{
		graph:      graph,
		defs:       make(map[*rwgraph.BBlock]*BlockDefinitions),
		cachedDefs: make(map[*rwgraph.BBlock]*DefinitionsMap),
		summaries:  make(map[*rwgraph.Subgraph]*SubgraphSummary),
	}
}

// Run performs the one-shot preparation the rest of the package
// depends on: ensuring every call to a defined function is alone in
// its own block. It is idempotent.
func (t *Transformation) Run() {
	t.graph.SplitBBlocksOnCalls()
}

func (t *Transformation) getSubgraphSummary(subg *rwgraph.Subgraph) *SubgraphSummary {
	s, ok := t.summaries[subg]
	if !ok {
		s = &SubgraphSummary{}
		t.summaries[subg] = s
	}
	return s
}

func (t *Transformation) hasCachedDefinitions(b *rwgraph.BBlock) bool {
	_, ok := t.cachedDefs[b]
	return ok
}

func (t *Transformation) getCachedDefinitions(b *rwgraph.BBlock) *DefinitionsMap {
	D, ok := t.cachedDefs[b]
	if !ok {
		D = newDefinitionsMap()
		t.cachedDefs[b] = D
	}
	return D
}

func (t *Transformation) setCachedDefinitions(b *rwgraph.BBlock, D *DefinitionsMap) {
	t.cachedDefs[b] = D
}

// getBBlockDefinitions returns (creating on first access) the
// BlockDefinitions for b. If b is a call-block, ds must be non-nil:
// findDefinitionsFromCall extends b's BlockDefinitions on demand for
// that specific DefSite instead of running LVN. Otherwise LVN runs
// once, on first access.
func (t *Transformation) getBBlockDefinitions(b *rwgraph.BBlock, ds *rwgraph.DefSite) *BlockDefinitions {
	D, ok := t.defs[b]
	if !ok {
		D = newBlockDefinitions()
		t.defs[b] = D
	}

	if callNode := getCallFromCallBBlock(b); callNode != nil {
		if ds == nil {
			panic("memssa: search reached a call block without a def-site")
		}
		t.findDefinitionsFromCall(D, callNode, *ds)
	} else if !D.IsProcessed() {
		performLVN(D, b)
	}
	return D
}

func (t *Transformation) newPhi(ds rwgraph.DefSite) *rwgraph.Node {
	phi := t.graph.Create(rwgraph.Phi)
	phi.AddOverwrites(ds)
	t.phis = append(t.phis, phi)
	return phi
}

// createPhi allocates a phi for ds, then folds it into D as the
// definer of whatever sub-interval of ds was still uncovered -- a
// phi's overwrites is always the precise range that motivated it, not
// the original query, which keeps the kill set tight. It also
// simulates the rest of LVN by inheriting D's unknownWrites.
func (t *Transformation) createPhi(D *BlockDefinitions, ds rwgraph.DefSite) *rwgraph.Node {
	phi := t.newPhi(ds)

	for _, iv := range D.definitions.Uncovered(ds) {
		uds := rwgraph.DefSite{Target: ds.Target, Offset: iv.Start, Length: iv.Length}
		D.kills.Add(uds, phi)
		D.definitions.Update(uds, phi)
		for _, uw := range D.unknownWrites.Slice() {
			D.definitions.Add(uds, uw)
		}
	}

	return phi
}

// createAndPlacePhi creates a phi for ds at the start of block,
// registering it against block's BlockDefinitions and splicing it
// into the block itself.
func (t *Transformation) createAndPlacePhi(block *rwgraph.BBlock, ds rwgraph.DefSite) *rwgraph.Node {
	D := t.getBBlockDefinitions(block, &ds)
	phi := t.createPhi(D, ds)
	block.Prepend(phi)
	return phi
}

// GetDefinitions returns the non-phi definitions reaching use,
// computing and memoizing them on first access.
func (t *Transformation) GetDefinitions(use *rwgraph.Node) []*rwgraph.Node {
	if !use.DefUse().Initialized() {
		use.DefUse().AddAll(t.findDefinitions(use))
	}
	return gatherNonPhisDefs(use.DefUse().Nodes())
}

// GetDefinitionsAt answers an ad-hoc query: which definitions of
// (mem, off, len) reach the point just before where? It materializes
// the query as an MU node and resolves it like any other use.
func (t *Transformation) GetDefinitionsAt(where *rwgraph.Node, mem *rwgraph.Target, off, length rwgraph.Offset) []*rwgraph.Node {
	use := t.InsertUse(where, mem, off, length)
	return t.GetDefinitions(use)
}

// InsertUse creates an MU node reading (mem, off, len) and splices it
// immediately before where, in where's block. The MU node is treated
// like any other use by LVN and the SSA search.
func (t *Transformation) InsertUse(where *rwgraph.Node, mem *rwgraph.Target, off, length rwgraph.Offset) *rwgraph.Node {
	use := t.graph.Create(rwgraph.MU)
	use.AddUse(rwgraph.DefSite{Target: mem, Offset: off, Length: length})
	where.BBlock().InsertBefore(use, where)
	return use
}

// ComputeAllDefinitions eagerly forces GetDefinitions on every use in
// every block of every subgraph, materializing up front all the phis a
// full analysis would ever need and memoizing each use's result.
func (t *Transformation) ComputeAllDefinitions() {
	for _, subg := range t.graph.Subgraphs() {
		for _, b := range subg.BBlocks() {
			for _, n := range b.Nodes() {
				if n.IsUse() {
					t.GetDefinitions(n)
				}
			}
		}
	}
}
