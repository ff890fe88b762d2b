// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

import "testing"

func TestOffsetAddSaturatesToUnknown(t *testing.T) {
	if got := OffsetUnknown.Add(4); got != OffsetUnknown {
		t.Errorf("OffsetUnknown.Add(4) = %v, want OffsetUnknown", got)
	}
	if got := Offset(4).Add(OffsetUnknown); got != OffsetUnknown {
		t.Errorf("Offset(4).Add(OffsetUnknown) = %v, want OffsetUnknown", got)
	}
	if got := Offset(4).Add(4); got != 8 {
		t.Errorf("Offset(4).Add(4) = %v, want 8", got)
	}
}

func TestIntervalOverlaps(t *testing.T) {
	a := Interval{Start: 0, Length: 4}
	b := Interval{Start: 2, Length: 4}
	c := Interval{Start: 4, Length: 4}

	if !a.Overlaps(b) {
		t.Error("[0,4) should overlap [2,6)")
	}
	if a.Overlaps(c) {
		t.Error("[0,4) should not overlap [4,8) (half-open)")
	}
	unknown := Interval{Start: OffsetUnknown, Length: OffsetUnknown}
	if !unknown.Overlaps(a) || !a.Overlaps(unknown) {
		t.Error("an Unknown interval should overlap everything")
	}
}

func TestIntervalEqual(t *testing.T) {
	a := Interval{Start: 0, Length: 4}
	b := Interval{Start: 0, Length: 4}
	c := Interval{Start: 0, Length: 8}
	if !a.Equal(b) {
		t.Error("identical intervals should be Equal")
	}
	if a.Equal(c) {
		t.Error("differently-sized intervals should not be Equal")
	}
}

func TestGraphCreateAssignsDenseIDs(t *testing.T) {
	g := NewGraph()
	n0 := g.Create(Plain)
	n1 := g.Create(Plain)
	if n0.ID() == n1.ID() {
		t.Fatalf("two nodes got the same ID %d", n0.ID())
	}
}

func TestSplitBBlocksOnCallsIsolatesDefinedCalls(t *testing.T) {
	g := NewGraph()
	callee := g.NewSubgraph("callee")
	callee.NewBlock()

	caller := g.NewSubgraph("caller")
	b := caller.NewBlock()

	pre := g.Create(Plain)
	call := g.Create(Call)
	call.SetCallees(callee)
	post := g.Create(Plain)
	b.Append(pre)
	b.Append(call)
	b.Append(post)

	g.SplitBBlocksOnCalls()

	if len(caller.BBlocks()) != 3 {
		t.Fatalf("expected the single block to split into 3, got %d", len(caller.BBlocks()))
	}
	callBlock := call.BBlock()
	if callBlock.Size() != 1 {
		t.Fatalf("call block should contain only the call, got %d nodes", callBlock.Size())
	}

	// idempotent
	g.SplitBBlocksOnCalls()
	if len(caller.BBlocks()) != 3 {
		t.Fatalf("re-running SplitBBlocksOnCalls should be a no-op, got %d blocks", len(caller.BBlocks()))
	}
}

func TestSplitBBlocksOnCallsLeavesSoleCallAlone(t *testing.T) {
	g := NewGraph()
	callee := g.NewSubgraph("callee")
	callee.NewBlock()

	caller := g.NewSubgraph("caller")
	b := caller.NewBlock()
	call := g.Create(Call)
	call.SetCallees(callee)
	b.Append(call)

	g.SplitBBlocksOnCalls()

	if len(caller.BBlocks()) != 1 {
		t.Fatalf("a block that is already just the call should not split, got %d blocks", len(caller.BBlocks()))
	}
}
