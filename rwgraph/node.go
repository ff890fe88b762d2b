// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

// NodeKind tags the variant of a Node.
type NodeKind int

const (
	// Plain is a load/store/generic op carrying defs/overwrites/uses.
	Plain NodeKind = iota
	// Call is a call site; see CallInfo for defined-vs-undefined detail.
	Call
	// Phi is synthesized during analysis to merge several definitions.
	Phi
	// MU is a synthesized memory-use marker for an ad-hoc query.
	MU
)

func (k NodeKind) String() string {
	switch k {
	case Plain:
		return "Plain"
	case Call:
		return "Call"
	case Phi:
		return "Phi"
	case MU:
		return "MU"
	default:
		return "?"
	}
}

// CallInfo distinguishes a defined call (one or more callee subgraphs)
// from an undefined one (a single summary node standing in for the
// external writes/uses/defs of the unknown callee).
type CallInfo struct {
	callees   []*Subgraph
	undefined *Node
}

// CallsDefined reports whether this call targets one or more subgraphs
// whose bodies are present in the graph.
func (c *CallInfo) CallsDefined() bool {
	return len(c.callees) > 0
}

// CallsOneUndefined reports whether this call targets a single external
// (body-less) function.
func (c *CallInfo) CallsOneUndefined() bool {
	return len(c.callees) == 0 && c.undefined != nil
}

// Callees returns the subgraphs this call may invoke (empty unless
// CallsDefined).
func (c *CallInfo) Callees() []*Subgraph {
	return c.callees
}

// SingleUndefined returns the node summarizing the writes/uses of the
// single external callee (nil unless CallsOneUndefined).
func (c *CallInfo) SingleUndefined() *Node {
	return c.undefined
}

// DefUse is the operand list hanging off a node: for a Phi it is the
// set of definitions the phi merges; for an ordinary use node it is
// where the (memoized) result of a reaching-definitions query is
// cached after the first lookup. The Initialized flag distinguishes
// "never queried" from "queried, result is empty".
type DefUse struct {
	nodes       []*Node
	index       map[*Node]struct{}
	initialized bool
}

// Add appends n to the operand list if it is not already present.
func (d *DefUse) Add(n *Node) {
	if n == nil {
		return
	}
	if d.index == nil {
		d.index = make(map[*Node]struct{})
	}
	if _, ok := d.index[n]; ok {
		return
	}
	d.index[n] = struct{}{}
	d.nodes = append(d.nodes, n)
	d.initialized = true
}

// AddAll appends every node in ns (deduplicated), marking the DefUse
// initialized even if ns is empty -- an explicitly-empty result is
// still a computed result.
func (d *DefUse) AddAll(ns []*Node) {
	d.initialized = true
	for _, n := range ns {
		d.Add(n)
	}
}

// Initialized reports whether this DefUse has been populated (even if
// with zero operands).
func (d *DefUse) Initialized() bool {
	return d.initialized
}

// Nodes returns the operand list in insertion order.
func (d *DefUse) Nodes() []*Node {
	return d.nodes
}

// Node is a node in the RW graph: a load/store/op (Plain), a call
// site (Call), or an analysis-synthesized Phi/MU.
type Node struct {
	id     int
	kind   NodeKind
	bblock *BBlock

	defs       []DefSite
	overwrites []DefSite
	uses       []DefSite

	defuse DefUse
	call   *CallInfo
}

// ID returns the node's unique, dense identifier (stable for the
// lifetime of the graph; used to index bitset-based node sets).
func (n *Node) ID() int {
	return n.id
}

// Kind returns the node's variant tag.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// BBlock returns the block this node belongs to, or nil for
// unreachable/dead-code nodes the builder never placed in a block.
func (n *Node) BBlock() *BBlock {
	return n.bblock
}

// Defs returns the node's may-write DefSites.
func (n *Node) Defs() []DefSite {
	return n.defs
}

// Overwrites returns the node's must-write (killing) DefSites.
func (n *Node) Overwrites() []DefSite {
	return n.overwrites
}

// Uses returns the node's read DefSites.
func (n *Node) Uses() []DefSite {
	return n.uses
}

// UsesUnknown reports whether any of this node's uses reads the
// distinguished UnknownTarget ("any memory").
func (n *Node) UsesUnknown() bool {
	for _, ds := range n.uses {
		if ds.Target.IsUnknown() {
			return true
		}
	}
	return false
}

// IsUse reports whether this node reads memory at all.
func (n *Node) IsUse() bool {
	return len(n.uses) > 0
}

// DefUse returns this node's operand/cache list.
func (n *Node) DefUse() *DefUse {
	return &n.defuse
}

// AddDefs appends a may-write DefSite (used by graph construction).
func (n *Node) AddDefs(ds DefSite) {
	n.defs = append(n.defs, ds)
}

// AddOverwrites appends a must-write DefSite.
func (n *Node) AddOverwrites(ds DefSite) {
	if ds.Target.IsUnknown() {
		panic("rwgraph: overwrites on unknown target")
	}
	if n.kind != Phi && ds.Offset.IsUnknown() {
		panic("rwgraph: overwrites with unknown offset on non-Phi node")
	}
	n.overwrites = append(n.overwrites, ds)
}

// AddUse appends a read DefSite.
func (n *Node) AddUse(ds DefSite) {
	n.uses = append(n.uses, ds)
}

// Call returns the node's call-specific data, or nil if Kind() != Call.
func (n *Node) Call() *CallInfo {
	return n.call
}

// SetCallees marks this Call node as targeting defined subgraphs,
// registering it as a caller on each so Subgraph.Callers() can find it.
func (n *Node) SetCallees(subgraphs ...*Subgraph) {
	if n.kind != Call {
		panic("rwgraph: SetCallees on a non-Call node")
	}
	n.call.callees = append(n.call.callees, subgraphs...)
	for _, s := range subgraphs {
		s.addCaller(n)
	}
}

// SetUndefined marks this Call node as targeting a single external
// function, summarized by the given node's defs/overwrites/uses.
func (n *Node) SetUndefined(summary *Node) {
	if n.kind != Call {
		panic("rwgraph: SetUndefined on a non-Call node")
	}
	n.call.undefined = summary
}
