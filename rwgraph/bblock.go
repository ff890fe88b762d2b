// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

// BBlock is a basic block: a straight-line sequence of nodes, with
// predecessor/successor edges to other blocks in the same Subgraph.
// Edges are kept as insertion-ordered slices (not maps) so that
// traversal order is reproducible, per the determinism requirement on
// the analysis that walks them.
type BBlock struct {
	id       int
	subgraph *Subgraph
	nodes    []*Node
	preds    []*BBlock
	succs    []*BBlock
}

// ID returns the block's unique, dense identifier.
func (b *BBlock) ID() int {
	return b.id
}

// Subgraph returns the procedure this block belongs to.
func (b *BBlock) Subgraph() *Subgraph {
	return b.subgraph
}

// Nodes returns the block's nodes in program order.
func (b *BBlock) Nodes() []*Node {
	return b.nodes
}

// First returns the block's first node, or nil if the block is empty.
func (b *BBlock) First() *Node {
	if len(b.nodes) == 0 {
		return nil
	}
	return b.nodes[0]
}

// Size returns the number of nodes in the block.
func (b *BBlock) Size() int {
	return len(b.nodes)
}

// Preds returns the block's predecessors, insertion order.
func (b *BBlock) Preds() []*BBlock {
	return b.preds
}

// Succs returns the block's successors, insertion order.
func (b *BBlock) Succs() []*BBlock {
	return b.succs
}

// HasPredecessors reports whether the block has any predecessor.
func (b *BBlock) HasPredecessors() bool {
	return len(b.preds) > 0
}

// HasSuccessors reports whether the block has any successor.
func (b *BBlock) HasSuccessors() bool {
	return len(b.succs) > 0
}

// SinglePredecessor returns the block's unique predecessor, or nil if
// it has zero or more than one.
func (b *BBlock) SinglePredecessor() *BBlock {
	if len(b.preds) == 1 {
		return b.preds[0]
	}
	return nil
}

// AddEdgeTo records a control-flow edge from b to succ.
func (b *BBlock) AddEdgeTo(succ *BBlock) {
	b.succs = append(b.succs, succ)
	succ.preds = append(succ.preds, b)
}

// Prepend inserts node at the start of the block and sets its BBlock.
func (b *BBlock) Prepend(node *Node) {
	node.bblock = b
	b.nodes = append([]*Node{node}, b.nodes...)
}

// Append inserts node at the end of the block and sets its BBlock.
func (b *BBlock) Append(node *Node) {
	node.bblock = b
	b.nodes = append(b.nodes, node)
}

// InsertBefore splices newNode into the block immediately before
// existing, and sets newNode's BBlock. existing must already be a
// member of this block.
func (b *BBlock) InsertBefore(newNode, existing *Node) {
	for i, n := range b.nodes {
		if n == existing {
			newNode.bblock = b
			b.nodes = append(b.nodes, nil)
			copy(b.nodes[i+1:], b.nodes[i:])
			b.nodes[i] = newNode
			return
		}
	}
	panic("rwgraph: InsertBefore: existing node not found in block")
}
