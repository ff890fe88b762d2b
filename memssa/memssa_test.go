// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import (
	"sort"
	"testing"

	"github.com/staticafi/godg/rwgraph"
)

func build(t *testing.T, src string) (*Transformation, map[string]*rwgraph.Node) {
	t.Helper()
	g, nodes, err := rwgraph.ParseFixture(src)
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	tr := NewTransformation(g)
	tr.Run()
	return tr, nodes
}

func idsOf(nodes []*rwgraph.Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Ints(ids)
	return ids
}

// expectDefs checks that the non-phi definitions reaching use are
// exactly want, and that no phi leaked into them -- phis are internal
// merge nodes and must never surface through the public API.
func expectDefs(t *testing.T, got []*rwgraph.Node, want ...*rwgraph.Node) {
	t.Helper()
	for _, n := range got {
		if n.Kind() == rwgraph.Phi {
			t.Errorf("phi node %d leaked into a public GetDefinitions result", n.ID())
		}
	}
	gotIDs, wantIDs := idsOf(got), idsOf(want)
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("got %d definitions %v, want %d %v", len(gotIDs), gotIDs, len(wantIDs), wantIDs)
	}
	for i := range gotIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("got %v, want %v", gotIDs, wantIDs)
		}
	}
}

func countPhis(b *rwgraph.BBlock) int {
	n := 0
	for _, node := range b.Nodes() {
		if node.Kind() == rwgraph.Phi {
			n++
		}
	}
	return n
}

// Scenario 1: straight line.
func TestStraightLine(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A store x 0 4
node b1 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])
}

// Scenario 2: diamond -- both sides write the same cell, join reads it.
func TestDiamond(t *testing.T) {
	tr, nodes := build(t, `
sub main
block E
block L
block R
block J
edge E L
edge E R
node L A store x 0 4
node R B store x 0 4
edge L J
edge R J
node J U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"], nodes["B"])

	jBlock := nodes["U"].BBlock()
	if n := countPhis(jBlock); n != 1 {
		t.Errorf("join block should materialize exactly one phi, got %d", n)
	}
}

// Scenario 3: partial overwrite -- A covers [0,8), B re-covers [2,6).
func TestPartialOverwrite(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A store x 0 8
node b1 B store x 2 4
node b1 C load x 0 8
`)
	expectDefs(t, tr.GetDefinitions(nodes["C"]), nodes["A"], nodes["B"])
}

// Scenario 4: self-cycle -- the use precedes the store in program
// order, so resolving it demands a predecessor search that loops back
// into the block's own (cached) LVN rather than recursing forever.
func TestSelfCycleLoop(t *testing.T) {
	tr, nodes := build(t, `
sub main
block L
node L U load x 0 4
node L A store x 0 4
edge L L
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])
}

// Scenario 5: a write to the Unknown target conservatively answers any
// concrete read in the same block.
func TestUnknownWrite(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A def unknown ? ?
node b1 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])
}

// Scenario 6: interprocedural -- main calls f, f writes the cell and
// returns, main reads it afterward.
func TestInterprocedural(t *testing.T) {
	tr, nodes := build(t, `
sub f
block fb
node fb A store x 0 4

sub main
block m1
call m1 C f
block m2
edge m1 m2
node m2 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])
}

// A second GetDefinitions call returns the same set and does not grow
// the phi arena: the first result is memoized on the use itself.
func TestGetDefinitionsIsIdempotent(t *testing.T) {
	tr, nodes := build(t, `
sub main
block E
block L
block R
block J
edge E L
edge E R
node L A store x 0 4
node R B store x 0 4
edge L J
edge R J
node J U load x 0 4
`)
	first := tr.GetDefinitions(nodes["U"])
	phisAfterFirst := len(tr.phis)

	second := tr.GetDefinitions(nodes["U"])
	if len(tr.phis) != phisAfterFirst {
		t.Errorf("second GetDefinitions call created new phis: %d -> %d", phisAfterFirst, len(tr.phis))
	}
	expectDefs(t, second, first...)
}

// Ad-hoc query via GetDefinitionsAt/InsertUse.
func TestGetDefinitionsAtInsertsMU(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A store x 0 4
node b1 C load y 0 4
`)
	target := nodes["A"].Overwrites()[0].Target
	got := tr.GetDefinitionsAt(nodes["C"], target, 0, 4)
	expectDefs(t, got, nodes["A"])

	muFound := false
	for _, n := range nodes["C"].BBlock().Nodes() {
		if n.Kind() == rwgraph.MU {
			muFound = true
		}
	}
	if !muFound {
		t.Error("GetDefinitionsAt should splice an MU node into the block")
	}
}

// A must-write in the use's own block kills the predecessor's write:
// only the killing store may reach the load.
func TestKillStopsPropagation(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b0
block b1
edge b0 b1
node b0 A store x 0 4
node b1 B store x 0 4
node b1 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["B"])
}

// Partial coverage across a join: each branch writes a different half
// of the queried range, so the phi at the join merges both stores, and
// the untouched remainder resolves to nothing (the entry defines no
// bytes).
func TestPartialCoverageAcrossDiamond(t *testing.T) {
	tr, nodes := build(t, `
sub main
block E
block L
block R
block J
edge E L
edge E R
node L A store x 0 4
node R B store x 4 4
edge L J
edge R J
node J U load x 0 8
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"], nodes["B"])
}

// A natural loop: the definition in the loop body reaches the use
// after the loop through the phi placed at the loop header, whose
// operand search crosses the back edge exactly once.
func TestLoopHeaderPhi(t *testing.T) {
	tr, nodes := build(t, `
sub main
block E
block H
block B
block X
edge E H
edge H B
edge B H
edge H X
node B A store x 0 4
node X U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])

	if n := countPhis(nodes["A"].BBlock().Preds()[0]); n != 1 {
		t.Errorf("loop header should materialize exactly one phi, got %d", n)
	}
}

// A read of the Unknown target escalates to the all-reaching search:
// every write reachable through the CFG is in the answer, regardless
// of target.
func TestUnknownReadGathersAllReaching(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b0
block b1
edge b0 b1
node b0 B store y 0 4
node b1 A store x 0 4
node b1 U load unknown ? ?
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"], nodes["B"])
}

// A call to a single external function: its summarized writes are
// attributed to the call node itself.
func TestExternalCallAttribution(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
callext b1 C store x 0 4
node b1 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["C"])
}

// Interprocedural, caller-to-callee direction: main writes the cell
// and then calls f, which reads it. The search crosses the subgraph
// entry, registering an input phi on f's summary and resolving it at
// every call-site of f.
func TestInterproceduralCallerWrite(t *testing.T) {
	tr, nodes := build(t, `
sub f
block fb
node fb U load x 0 4

sub main
block m1
node m1 A store x 0 4
block m2
edge m1 m2
call m2 C f
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])

	f := nodes["U"].BBlock().Subgraph()
	summary := tr.summaries[f]
	if summary == nil || len(summary.Inputs()) != 1 {
		t.Errorf("f should have exactly one input summary phi, got %v", summary)
	}
}

// The callee-to-caller direction registers one output phi on the
// callee's summary and appends one merge phi to the call block.
func TestInterproceduralSummaries(t *testing.T) {
	tr, nodes := build(t, `
sub f
block fb
node fb A store x 0 4

sub main
block m1
call m1 C f
block m2
edge m1 m2
node m2 U load x 0 4
`)
	expectDefs(t, tr.GetDefinitions(nodes["U"]), nodes["A"])

	f := nodes["A"].BBlock().Subgraph()
	summary := tr.summaries[f]
	if summary == nil || len(summary.Outputs()) != 1 {
		t.Errorf("f should have exactly one output summary phi, got %v", summary)
	}
	if n := countPhis(nodes["C"].BBlock()); n != 1 {
		t.Errorf("call block should hold exactly one merge phi, got %d", n)
	}
}

// Two independent runs over the same fixture produce identical result
// sets.
func TestDeterministicResults(t *testing.T) {
	const src = `
sub main
block E
block L
block R
block J
edge E L
edge E R
node L A store x 0 4
node R B store x 2 4
edge L J
edge R J
node J U load x 0 8
`
	tr1, nodes1 := build(t, src)
	tr2, nodes2 := build(t, src)

	ids1 := idsOf(tr1.GetDefinitions(nodes1["U"]))
	ids2 := idsOf(tr2.GetDefinitions(nodes2["U"]))
	if len(ids1) != len(ids2) {
		t.Fatalf("two runs disagree: %v vs %v", ids1, ids2)
	}
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			t.Fatalf("two runs disagree: %v vs %v", ids1, ids2)
		}
	}
}

// A use the builder never placed in a block (dead code) resolves to
// the empty set rather than failing.
func TestDeadUseReturnsEmpty(t *testing.T) {
	tr, _ := build(t, `
sub main
block b1
node b1 A store x 0 4
`)
	dead := tr.graph.Create(rwgraph.MU)
	dead.AddUse(rwgraph.DefSite{Target: rwgraph.NewTarget("x"), Offset: 0, Length: 4})
	if got := tr.GetDefinitions(dead); len(got) != 0 {
		t.Errorf("a blockless use should have no definitions, got %v", got)
	}
}

// Asking for a block's definitions twice hands back the same processed
// state: LVN runs at most once per block.
func TestLVNIsIdempotent(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A store x 0 4
node b1 U load x 0 4
`)
	b := nodes["A"].BBlock()
	D1 := tr.getBBlockDefinitions(b, nil)
	if !D1.IsProcessed() {
		t.Fatal("block should be processed after the first access")
	}
	D2 := tr.getBBlockDefinitions(b, nil)
	if D1 != D2 {
		t.Error("a second access should reuse the same BlockDefinitions")
	}
}

// ComputeAllDefinitions should not panic and should force every use's
// DefUse to be initialized.
func TestComputeAllDefinitions(t *testing.T) {
	tr, nodes := build(t, `
sub main
block b1
node b1 A store x 0 4
node b1 U load x 0 4
`)
	tr.ComputeAllDefinitions()
	if !nodes["U"].DefUse().Initialized() {
		t.Error("ComputeAllDefinitions should have triggered a search for U")
	}
}
