// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rwgraph defines the Read/Write graph that the memssa package
// consumes: memory targets, byte offsets and intervals, def-sites, and
// the Node/BBlock/Subgraph/Graph structure the analysis walks. No
// separate IR-to-RW-graph builder is part of this repository: callers
// construct a Graph directly with the methods below, or feed a textual
// description to ParseFixture.
package rwgraph

import "fmt"

// Target is an opaque identifier for an abstract memory location.
// Two Targets denote the same location iff they are the same pointer;
// callers obtain one from NewTarget or use the distinguished UnknownTarget.
type Target struct {
	name string
}

// UnknownTarget denotes "any memory location".
var UnknownTarget = &Target{name: "<unknown>"}

// NewTarget creates a fresh, named memory target. The name is for
// debugging only; identity is by pointer.
func NewTarget(name string) *Target {
	return &Target{name: name}
}

// IsUnknown reports whether t is the distinguished UnknownTarget.
func (t *Target) IsUnknown() bool {
	return t == UnknownTarget
}

func (t *Target) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// Offset is a non-negative byte offset, or the sentinel OffsetUnknown.
type Offset int64

// OffsetUnknown is the sentinel meaning "unknown offset or length".
// Arithmetic involving it saturates to OffsetUnknown.
const OffsetUnknown Offset = -1

// IsUnknown reports whether o is the OffsetUnknown sentinel.
func (o Offset) IsUnknown() bool {
	return o == OffsetUnknown
}

// Add returns o+n, saturating to OffsetUnknown if either operand is unknown.
func (o Offset) Add(n Offset) Offset {
	if o.IsUnknown() || n.IsUnknown() {
		return OffsetUnknown
	}
	return o + n
}

// Interval is a half-open byte range [Start, Start+Length). An interval
// with an unknown Start or Length denotes "all bytes".
type Interval struct {
	Start  Offset
	Length Offset
}

// End returns Start+Length (OffsetUnknown if the interval is unknown).
func (iv Interval) End() Offset {
	return iv.Start.Add(iv.Length)
}

// IsUnknown reports whether iv stands for "all bytes".
func (iv Interval) IsUnknown() bool {
	return iv.Start.IsUnknown() || iv.Length.IsUnknown()
}

// Overlaps reports whether iv and other share at least one byte. An
// unknown interval overlaps everything.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.IsUnknown() || other.IsUnknown() {
		return true
	}
	return iv.Start < other.End() && other.Start < iv.End()
}

// Equal reports whether iv and other describe the identical range.
// An "all bytes" interval only counts as covering another "all bytes"
// interval when they are Equal, so coverage checks need identity, not
// just overlap.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start == other.Start && iv.Length == other.Length
}

func (iv Interval) String() string {
	if iv.IsUnknown() {
		return "[?,?)"
	}
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End())
}

// DefSite identifies bytes being read or written: a (target, offset,
// length) triple.
type DefSite struct {
	Target *Target
	Offset Offset
	Length Offset
}

// Interval returns the byte range this DefSite covers.
func (ds DefSite) Interval() Interval {
	return Interval{Start: ds.Offset, Length: ds.Length}
}

func (ds DefSite) String() string {
	return fmt.Sprintf("%s%s", ds.Target, ds.Interval())
}
