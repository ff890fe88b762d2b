// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/staticafi/godg/rwgraph"
)

// nodeSet is a set of *rwgraph.Node identified by Node.ID(), backed by
// a *bitset.BitSet indexed by that dense integer. A side table
// recovers the *rwgraph.Node for a set bit, since the bitset itself
// only records membership.
type nodeSet struct {
	bits  *bitset.BitSet
	nodes map[uint]*rwgraph.Node
}

func newNodeSet() *nodeSet {
	return &nodeSet{bits: new(bitset.BitSet), nodes: make(map[uint]*rwgraph.Node)}
}

// Add records n as a member; a no-op if already present.
func (s *nodeSet) Add(n *rwgraph.Node) {
	id := uint(n.ID())
	if s.bits.Test(id) {
		return
	}
	s.bits.Set(id)
	s.nodes[id] = n
}

// Has reports whether n is a member.
func (s *nodeSet) Has(n *rwgraph.Node) bool {
	return s.bits.Test(uint(n.ID()))
}

// Empty reports whether the set has no members.
func (s *nodeSet) Empty() bool {
	return len(s.nodes) == 0
}

// Slice returns the members in ascending ID order, for deterministic
// iteration.
func (s *nodeSet) Slice() []*rwgraph.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	result := make([]*rwgraph.Node, 0, len(s.nodes))
	for i, e := s.bits.NextSet(0); e; i, e = s.bits.NextSet(i + 1) {
		result = append(result, s.nodes[i])
	}
	return result
}

// blockSet is the BBlock.ID()-indexed analogue of nodeSet, used where
// only membership (not the blocks themselves) needs to be recovered --
// the visited set in findAllReachingDefinitions.
type blockSet struct {
	bits *bitset.BitSet
}

func newBlockSet() *blockSet {
	return &blockSet{bits: new(bitset.BitSet)}
}

func (s *blockSet) Add(b *rwgraph.BBlock) {
	s.bits.Set(uint(b.ID()))
}

func (s *blockSet) Has(b *rwgraph.BBlock) bool {
	return s.bits.Test(uint(b.ID()))
}
