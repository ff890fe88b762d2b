// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memssa implements a demand-driven Memory-SSA construction and
// reaching-definitions engine over a pre-built rwgraph.Graph. Given a
// use of memory at some program point, it answers which writes may
// have produced the value read there, with byte-interval precision,
// flow sensitivity, and interprocedural propagation across calls.
//
// Apart from Transformation.Run, which splits blocks so that every call
// to a defined function sits alone in its own block, the engine does
// not change control flow; it only inserts Phi and MU nodes into
// existing blocks (Graph.Create, BBlock.Prepend/Append/InsertBefore)
// as it resolves queries.
package memssa

import (
	"sort"

	"github.com/staticafi/godg/rwgraph"
)

// ivEntry is one stored (interval -> value-set) binding in an
// IntervalMap. Entries are kept in insertion order rather than
// physically re-sorted on every mutation, which keeps iteration --
// and therefore the result of Get -- deterministic without extra
// bookkeeping; Uncovered sorts a local copy of the relevant bounds
// when it needs an ordered sweep.
type ivEntry[V comparable] struct {
	iv   rwgraph.Interval
	vals []V
}

func (e *ivEntry[V]) addValue(v V) {
	for _, x := range e.vals {
		if x == v {
			return
		}
	}
	e.vals = append(e.vals, v)
}

// IntervalMap maps byte intervals of one memory target to sets of
// values (in this package, always *rwgraph.Node). Storage is a flat
// slice: RW graphs rarely hold more than a handful of writes per cell,
// so a search tree would buy nothing.
type IntervalMap[V comparable] struct {
	entries []*ivEntry[V]
}

// Add inserts v into the value-set of every stored interval
// overlapping iv, and creates fresh entries -- each holding just {v}
// -- for the sub-intervals of iv not yet covered by any entry. It
// never coalesces distinct stored intervals: each keeps its own
// identity and value-set, because Uncovered relies on that identity
// to report gaps precisely.
func (m *IntervalMap[V]) Add(iv rwgraph.Interval, v V) {
	for _, e := range m.entries {
		if e.iv.Overlaps(iv) {
			e.addValue(v)
		}
	}
	for _, sub := range m.Uncovered(iv) {
		m.entries = append(m.entries, &ivEntry[V]{iv: sub, vals: []V{v}})
	}
}

// Update replaces whatever is stored over iv with {v}: any stored
// interval that overlaps iv is clipped down to the portion of itself
// lying outside iv (keeping its own value-set for that remainder), and
// a new entry for exactly iv -> {v} is added. An entry whose interval
// is itself Unknown ("all bytes") has no finite remainder once iv is
// subtracted from it, so it is left untouched rather than destroyed --
// it keeps matching every query, so Get over iv then returns v together
// with the Unknown entry's values.
func (m *IntervalMap[V]) Update(iv rwgraph.Interval, v V) {
	var kept []*ivEntry[V]
	for _, e := range m.entries {
		if !e.iv.Overlaps(iv) {
			kept = append(kept, e)
			continue
		}
		if e.iv.IsUnknown() {
			kept = append(kept, e)
			continue
		}
		if e.iv.Start < iv.Start {
			kept = append(kept, &ivEntry[V]{
				iv:   rwgraph.Interval{Start: e.iv.Start, Length: iv.Start - e.iv.Start},
				vals: append([]V(nil), e.vals...),
			})
		}
		if e.iv.End() > iv.End() {
			kept = append(kept, &ivEntry[V]{
				iv:   rwgraph.Interval{Start: iv.End(), Length: e.iv.End() - iv.End()},
				vals: append([]V(nil), e.vals...),
			})
		}
	}
	kept = append(kept, &ivEntry[V]{iv: iv, vals: []V{v}})
	m.entries = kept
}

// Get returns the union of the value-sets of every stored interval
// overlapping iv, in first-seen order.
func (m *IntervalMap[V]) Get(iv rwgraph.Interval) []V {
	var result []V
	seen := make(map[V]struct{})
	for _, e := range m.entries {
		if !e.iv.Overlaps(iv) {
			continue
		}
		for _, v := range e.vals {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// Uncovered returns the sub-intervals of iv not covered by any stored
// entry. An Unknown-length iv is treated specially: it is covered iff
// an entry exists whose interval is identical (Equal) to iv; otherwise
// the whole of iv is reported uncovered (it cannot be partially
// covered, since "all bytes" has no finite sub-intervals to subtract).
func (m *IntervalMap[V]) Uncovered(iv rwgraph.Interval) []rwgraph.Interval {
	if iv.IsUnknown() {
		for _, e := range m.entries {
			if e.iv.Equal(iv) {
				return nil
			}
		}
		return []rwgraph.Interval{iv}
	}

	type bound struct{ start, end rwgraph.Offset }
	var covers []bound
	for _, e := range m.entries {
		if !e.iv.Overlaps(iv) {
			continue
		}
		if e.iv.IsUnknown() {
			return nil
		}
		s, en := e.iv.Start, e.iv.End()
		if s < iv.Start {
			s = iv.Start
		}
		if en > iv.End() {
			en = iv.End()
		}
		covers = append(covers, bound{s, en})
	}
	if len(covers) == 0 {
		return []rwgraph.Interval{iv}
	}
	sort.Slice(covers, func(i, j int) bool { return covers[i].start < covers[j].start })

	var result []rwgraph.Interval
	cursor := iv.Start
	for _, c := range covers {
		if c.start > cursor {
			result = append(result, rwgraph.Interval{Start: cursor, Length: c.start - cursor})
		}
		if c.end > cursor {
			cursor = c.end
		}
	}
	if cursor < iv.End() {
		result = append(result, rwgraph.Interval{Start: cursor, Length: iv.End() - cursor})
	}
	return result
}

// Empty reports whether the map holds no entries at all.
func (m *IntervalMap[V]) Empty() bool {
	return len(m.entries) == 0
}
