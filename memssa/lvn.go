// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// performLVN runs local value numbering over every node of block,
// updating D in program order. A call to a defined function is never
// seen here: SplitBBlocksOnCalls guarantees such a call owns its whole
// block, and getBBlockDefinitions routes call-blocks through
// findDefinitionsFromCall instead of LVN.
func performLVN(D *BlockDefinitions, block *rwgraph.BBlock) {
	for _, node := range block.Nodes() {
		updateDefinitions(D, node)
	}
	D.setProcessed()
}

// updateDefinitions folds one node's effect into D: an undefined
// call's summarized effects are attributed to the call node itself;
// anything else (including Phi and MU nodes) is attributed to itself.
func updateDefinitions(D *BlockDefinitions, node *rwgraph.Node) {
	if node.Kind() == rwgraph.Call {
		call := node.Call()
		if call.CallsDefined() {
			panic("memssa: LVN reached a call to a defined function outside its own block")
		}
		if !call.CallsOneUndefined() {
			panic("memssa: call node has neither a defined callee nor a single undefined summary")
		}
		D.Update(call.SingleUndefined(), node)
		return
	}
	D.Update(node, node)
}

// findDefinitionsInBlock computes a fresh, non-cached BlockDefinitions
// covering exactly the nodes of to's block preceding to (not
// including it). Used when the query point falls inside a block whose
// full LVN would over-approximate by including writes that happen
// after the use.
func findDefinitionsInBlock(to *rwgraph.Node) *BlockDefinitions {
	D := newBlockDefinitions()
	block := to.BBlock()
	for _, node := range block.Nodes() {
		if node == to {
			break
		}
		updateDefinitions(D, node)
	}
	return D
}
