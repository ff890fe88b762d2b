// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memssa

import "github.com/staticafi/godg/rwgraph"

// DefinitionsMap maps a memory target to the IntervalMap of
// definitions reaching some point, for every target touched so far.
// Iteration (Targets) is insertion-ordered so traversal -- and with it
// the analysis result -- is reproducible across runs.
type DefinitionsMap struct {
	order []*rwgraph.Target
	byTgt map[*rwgraph.Target]*IntervalMap[*rwgraph.Node]
}

func newDefinitionsMap() *DefinitionsMap {
	return &DefinitionsMap{byTgt: make(map[*rwgraph.Target]*IntervalMap[*rwgraph.Node])}
}

func (d *DefinitionsMap) intervalMap(t *rwgraph.Target) *IntervalMap[*rwgraph.Node] {
	im, ok := d.byTgt[t]
	if !ok {
		im = &IntervalMap[*rwgraph.Node]{}
		d.byTgt[t] = im
		d.order = append(d.order, t)
	}
	return im
}

// DefinesTarget reports whether t has ever been written through this map.
func (d *DefinitionsMap) DefinesTarget(t *rwgraph.Target) bool {
	_, ok := d.byTgt[t]
	return ok
}

// Targets returns every target tracked so far, insertion order.
func (d *DefinitionsMap) Targets() []*rwgraph.Target {
	return d.order
}

// Add records v as a possible (non-killing) definition of ds.
func (d *DefinitionsMap) Add(ds rwgraph.DefSite, v *rwgraph.Node) {
	d.intervalMap(ds.Target).Add(ds.Interval(), v)
}

// Update records v as the sole definition over ds, splitting away any
// previously-stored interval's overlap with ds (see IntervalMap.Update).
func (d *DefinitionsMap) Update(ds rwgraph.DefSite, v *rwgraph.Node) {
	d.intervalMap(ds.Target).Update(ds.Interval(), v)
}

// Get returns the definitions reaching ds, or nil if the target was
// never tracked.
func (d *DefinitionsMap) Get(ds rwgraph.DefSite) []*rwgraph.Node {
	im, ok := d.byTgt[ds.Target]
	if !ok {
		return nil
	}
	return im.Get(ds.Interval())
}

// Uncovered returns the sub-intervals of ds not yet defined for its target.
func (d *DefinitionsMap) Uncovered(ds rwgraph.DefSite) []rwgraph.Interval {
	im, ok := d.byTgt[ds.Target]
	if !ok {
		return []rwgraph.Interval{ds.Interval()}
	}
	return im.Uncovered(ds.Interval())
}

// UndefinedIntervals is Uncovered read from the other direction: the
// byte ranges of ds for which no definition exists yet. joinDefinitions
// uses it to decide which parts of an incoming entry still matter.
func (d *DefinitionsMap) UndefinedIntervals(ds rwgraph.DefSite) []rwgraph.Interval {
	return d.Uncovered(ds)
}

// AddAllTargets unions v into every interval entry of every target
// already tracked -- turning all last-defs into possible-defs -- used
// when a node writes the Unknown target and may thus have clobbered
// any of them.
func (d *DefinitionsMap) AddAllTargets(v *rwgraph.Node) {
	for _, t := range d.order {
		im := d.byTgt[t]
		for _, e := range im.entries {
			e.addValue(v)
		}
	}
}

// Merge adds every value of every stored entry of other into d over
// that entry's interval, via Add (used to combine two
// DefinitionsMaps describing alternative, not sequential, paths -- see
// findAllReachingDefinitions).
func (d *DefinitionsMap) Merge(other *DefinitionsMap) {
	for _, t := range other.order {
		im := other.byTgt[t]
		for _, e := range im.entries {
			for _, v := range e.vals {
				d.Add(rwgraph.DefSite{Target: t, Offset: e.iv.Start, Length: e.iv.Length}, v)
			}
		}
	}
}

// joinDefinitions merges from into to as if the definitions in from
// execute before whatever to already contains: for a target to does
// not yet define at all, from's entries are copied wholesale; for a
// target to already defines, only the sub-intervals to still leaves
// undefined receive from's value-sets.
func joinDefinitions(from, to *DefinitionsMap) {
	for _, t := range from.order {
		fromIM := from.byTgt[t]
		if !to.DefinesTarget(t) {
			for _, e := range fromIM.entries {
				for _, v := range e.vals {
					to.Add(rwgraph.DefSite{Target: t, Offset: e.iv.Start, Length: e.iv.Length}, v)
				}
			}
			continue
		}
		for _, e := range fromIM.entries {
			ds := rwgraph.DefSite{Target: t, Offset: e.iv.Start, Length: e.iv.Length}
			for _, undef := range to.UndefinedIntervals(ds) {
				for _, v := range e.vals {
					to.Add(rwgraph.DefSite{Target: t, Offset: undef.Start, Length: undef.Length}, v)
				}
			}
		}
	}
}

// BlockDefinitions is the per-basic-block reaching-definitions state:
// known definitions, killed ranges, the block's unknown-memory
// writers/readers, and whether LVN has processed the block yet.
type BlockDefinitions struct {
	definitions *DefinitionsMap
	kills       *DefinitionsMap

	unknownWrites *nodeSet
	unknownReads  *nodeSet

	processed bool
}

func newBlockDefinitions() *BlockDefinitions {
	return &BlockDefinitions{
		definitions:   newDefinitionsMap(),
		kills:         newDefinitionsMap(),
		unknownWrites: newNodeSet(),
		unknownReads:  newNodeSet(),
	}
}

// IsProcessed reports whether LVN has already run over this block.
func (d *BlockDefinitions) IsProcessed() bool {
	return d.processed
}

func (d *BlockDefinitions) setProcessed() {
	d.processed = true
}

// UnknownWrites returns every node that wrote the Unknown target in
// this block, in ID order.
func (d *BlockDefinitions) UnknownWrites() []*rwgraph.Node {
	return d.unknownWrites.Slice()
}

// UnknownReads returns every node that read the Unknown target in
// this block, in ID order.
func (d *BlockDefinitions) UnknownReads() []*rwgraph.Node {
	return d.unknownReads.Slice()
}

// Get returns the definitions reaching ds within this block alone,
// falling back to the block's unknownWrites when the direct query is
// empty: a write to unknown memory may have defined any byte of ds.
func (d *BlockDefinitions) Get(ds rwgraph.DefSite) []*rwgraph.Node {
	found := d.definitions.Get(ds)
	if len(found) == 0 {
		return d.unknownWrites.Slice()
	}
	return found
}

// addDefinition records v as a possible definition of ds, then folds
// in the block's current unknownWrites so the freshly-touched entries
// inherit them too.
func (d *BlockDefinitions) addDefinition(ds rwgraph.DefSite, v *rwgraph.Node) {
	d.definitions.Add(ds, v)
	for _, uw := range d.unknownWrites.Slice() {
		d.definitions.Add(ds, uw)
	}
}

// addKill records v as the sole (killing) definition of ds, then folds
// in unknownWrites the same way addDefinition does.
func (d *BlockDefinitions) addKill(ds rwgraph.DefSite, v *rwgraph.Node) {
	d.kills.Add(ds, v)
	d.definitions.Update(ds, v)
	for _, uw := range d.unknownWrites.Slice() {
		d.definitions.Add(ds, uw)
	}
}

// Update folds node's defs/overwrites/uses into this BlockDefinitions,
// attributing each effect to defnode. The two differ only for external
// calls, where the DefSites are read from the callee's summary node
// but the definer recorded is the call itself.
func (d *BlockDefinitions) Update(node, defnode *rwgraph.Node) {
	if defnode == nil {
		defnode = node
	}

	for _, ds := range node.Defs() {
		if ds.Target.IsUnknown() {
			d.definitions.AddAllTargets(defnode)
			d.unknownWrites.Add(defnode)
		} else {
			d.addDefinition(ds, defnode)
		}
	}

	for _, ds := range node.Overwrites() {
		// rwgraph.Node.AddOverwrites already refuses to construct an
		// overwrite with an unknown offset on a non-Phi node, and an
		// unknown-target overwrite outright, so every DefSite seen
		// here may be killed safely.
		d.addKill(ds, defnode)
	}

	if node.UsesUnknown() {
		d.unknownReads.Add(defnode)
	}
}
