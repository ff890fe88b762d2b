// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import (
	"reflect"
	"sort"
	"testing"

	"github.com/staticafi/godg/rwgraph"
)

func iv(start, length int64) rwgraph.Interval {
	return rwgraph.Interval{Start: rwgraph.Offset(start), Length: rwgraph.Offset(length)}
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

// expectSoleCover checks that after Update(iv, v), Get(iv) returns
// exactly {v} and Uncovered(iv) reports nothing missing.
func expectSoleCover(t *testing.T, m *IntervalMap[string], q rwgraph.Interval, v string) {
	t.Helper()
	got := m.Get(q)
	if !reflect.DeepEqual(got, []string{v}) {
		t.Errorf("after Update(%v, %q): Get(%v) = %v, want [%q]", q, v, q, got, v)
	}
	if u := m.Uncovered(q); len(u) != 0 {
		t.Errorf("after Update(%v, %q): Uncovered(%v) = %v, want none", q, v, q, u)
	}
}

func TestIntervalMapUpdateReplacesCoverage(t *testing.T) {
	m := &IntervalMap[string]{}
	m.Update(iv(0, 8), "A")
	expectSoleCover(t, m, iv(0, 8), "A")

	m.Update(iv(2, 4), "B")
	if got := sortedStrings(m.Get(iv(0, 8))); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Get([0,8)) after overwriting [2,6) = %v, want [A B]", got)
	}
	expectSoleCover(t, m, iv(2, 4), "B")
	// the untouched remainders still belong to A alone
	if got := m.Get(iv(0, 2)); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Get([0,2)) = %v, want [A]", got)
	}
	if got := m.Get(iv(6, 2)); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Get([6,8)) = %v, want [A]", got)
	}
}

func TestIntervalMapAddUnionsWithoutCoalescing(t *testing.T) {
	m := &IntervalMap[string]{}
	m.Add(iv(0, 4), "A")
	m.Add(iv(0, 4), "B")
	if got := sortedStrings(m.Get(iv(0, 4))); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Get([0,4)) = %v, want [A B]", got)
	}
	if len(m.entries) != 1 {
		t.Errorf("two Adds over the identical interval should stay one entry, got %d", len(m.entries))
	}
}

func TestIntervalMapUncoveredPartial(t *testing.T) {
	m := &IntervalMap[string]{}
	m.Update(iv(2, 4), "A") // [2,6)
	got := m.Uncovered(iv(0, 8))
	want := []rwgraph.Interval{iv(0, 2), iv(6, 2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Uncovered([0,8)) = %v, want %v", got, want)
	}
}

func TestIntervalMapUnknownLengthTieBreak(t *testing.T) {
	m := &IntervalMap[string]{}
	unknown := rwgraph.Interval{Start: rwgraph.OffsetUnknown, Length: rwgraph.OffsetUnknown}

	if u := m.Uncovered(unknown); len(u) != 1 {
		t.Fatalf("empty map: Uncovered(unknown) = %v, want [unknown]", u)
	}

	m.Update(unknown, "A")
	if u := m.Uncovered(unknown); len(u) != 0 {
		t.Errorf("after Update(unknown, A): Uncovered(unknown) = %v, want none", u)
	}
	if got := m.Get(unknown); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Get(unknown) = %v, want [A]", got)
	}

	// a concrete interval is covered too: the Equal rule only applies to
	// a query that is itself Unknown -- concrete queries go through the
	// ordinary sweep, where an Unknown stored entry short-circuits
	// coverage (see Uncovered).
	if u := m.Uncovered(iv(0, 4)); len(u) != 0 {
		t.Errorf("Uncovered([0,4)) against an Unknown entry = %v, want none (Unknown covers everything)", u)
	}
}

func TestIntervalMapEmpty(t *testing.T) {
	m := &IntervalMap[string]{}
	if !m.Empty() {
		t.Error("a freshly created IntervalMap should be Empty")
	}
	m.Add(iv(0, 4), "A")
	if m.Empty() {
		t.Error("IntervalMap should not be Empty after Add")
	}
}
