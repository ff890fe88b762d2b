// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

// Graph is the whole Read/Write graph: every Subgraph (procedure) of
// the analyzed program, plus the ID counters from which every Node --
// including the Phi/MU nodes the memssa package synthesizes during
// analysis -- gets its identifier. The graph keeps no list of nodes;
// a node is reachable through the block it is placed in.
type Graph struct {
	subgraphs []*Subgraph

	nextNodeID  int
	blockIDSeq  int
	nextSubgID  int

	split bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Subgraphs returns every procedure in the graph, insertion order.
func (g *Graph) Subgraphs() []*Subgraph {
	return g.subgraphs
}

// NewSubgraph creates and registers a fresh, empty subgraph.
func (g *Graph) NewSubgraph(name string) *Subgraph {
	s := &Subgraph{id: g.nextSubgID, name: name, graph: g}
	g.nextSubgID++
	g.subgraphs = append(g.subgraphs, s)
	return s
}

// Create allocates a new node of the given kind with the graph's next
// node ID and returns it, unattached to any block. This is how the
// analysis materializes Phi and MU nodes on demand.
func (g *Graph) Create(kind NodeKind) *Node {
	n := &Node{id: g.nextNodeID, kind: kind}
	g.nextNodeID++
	if kind == Call {
		n.call = &CallInfo{}
	}
	return n
}

// nextBlockID hands out a fresh, graph-wide unique block identifier
// (needed to index bitsets by BBlock.ID() across subgraph boundaries).
func (g *Graph) nextBlockID() int {
	id := g.blockIDSeq
	g.blockIDSeq++
	return id
}

// SplitBBlocksOnCalls ensures every call to a defined (body-present)
// function occupies its own block, splitting any block that violates
// that invariant. It is the sole precondition the memssa package
// relies on; it is idempotent, and Transformation.Run calls it for the
// caller.
func (g *Graph) SplitBBlocksOnCalls() {
	if g.split {
		return
	}
	g.split = true

	for _, subg := range g.subgraphs {
		// New blocks created while splitting are appended to
		// subg.bblocks; iterate by index so they are visited too.
		for i := 0; i < len(subg.bblocks); i++ {
			b := subg.bblocks[i]
			for {
				idx := firstDefinedCallNeedingSplit(b)
				if idx < 0 {
					break
				}
				splitBlockAtCall(subg, b, idx)
			}
		}
	}
}

// firstDefinedCallNeedingSplit returns the index of a defined-call
// node in b that is not already the block's sole node, or -1 if none.
func firstDefinedCallNeedingSplit(b *BBlock) int {
	for i, n := range b.nodes {
		if n.Kind() == Call && n.Call().CallsDefined() {
			if len(b.nodes) != 1 {
				return i
			}
		}
	}
	return -1
}

func splitBlockAtCall(subg *Subgraph, b *BBlock, idx int) {
	nodes := b.nodes
	callNode := nodes[idx]
	pre := append([]*Node(nil), nodes[:idx]...)
	post := append([]*Node(nil), nodes[idx+1:]...)

	oldSuccs := append([]*BBlock(nil), b.succs...)
	for _, succ := range oldSuccs {
		removeBBlock(&succ.preds, b)
	}
	b.succs = nil

	var callBlock *BBlock
	if len(pre) > 0 {
		b.nodes = pre
		callBlock = subg.NewBlock()
		b.AddEdgeTo(callBlock)
	} else {
		callBlock = b
	}
	callBlock.nodes = []*Node{callNode}
	callNode.bblock = callBlock

	var tailBlock *BBlock
	if len(post) > 0 {
		postBlock := subg.NewBlock()
		postBlock.nodes = post
		for _, n := range post {
			n.bblock = postBlock
		}
		callBlock.AddEdgeTo(postBlock)
		tailBlock = postBlock
	} else {
		tailBlock = callBlock
	}

	tailBlock.succs = append(tailBlock.succs, oldSuccs...)
	for _, succ := range oldSuccs {
		succ.preds = append(succ.preds, tailBlock)
	}
}

func removeBBlock(blocks *[]*BBlock, target *BBlock) {
	out := (*blocks)[:0]
	for _, b := range *blocks {
		if b != target {
			out = append(out, b)
		}
	}
	*blocks = out
}
