// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwgraph

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseFixture builds a Graph from a small line-oriented text format,
// so a test can describe a graph as text instead of assembling it call
// by call. It is the package's one fallible public operation;
// malformed input returns an error describing the offending line.
//
// Grammar (blank lines and lines starting with '#' are ignored):
//
//	sub <name>
//	    declares and switches to a new subgraph. The first "block"
//	    line seen for a subgraph becomes its entry block.
//	block <label>
//	    declares a block in the current subgraph, referenced by
//	    label in later "edge" and node lines (labels are scoped to
//	    the subgraph that declared them).
//	edge <from> <to>
//	    adds a control-flow edge between two blocks of the current
//	    subgraph (both ends may be the same label, for a self-loop).
//	node <block> <label> def <target> <off> <len>
//	node <block> <label> store <target> <off> <len>
//	node <block> <label> load <target> <off> <len>
//	    appends a Plain node to <block>, with a single DefSite in
//	    its defs (def), overwrites (store) or uses (load) list. A
//	    node with multiple DefSites is built by repeating the
//	    trailing "def/store/load <target> <off> <len>" group.
//	call <block> <label> <callee-sub> [<callee-sub> ...]
//	    appends a Call node targeting one or more already-declared
//	    subgraphs by name.
//	callext <block> <label> <def|store|load> <target> <off> <len> ...
//	    appends a Call node targeting a single external function,
//	    summarized by the given DefSites (same grouping as "node").
//
// <off> and <len> are non-negative integers, or "?" for
// OffsetUnknown. <target> is any bare word; "unknown" refers to the
// distinguished UnknownTarget, and any other name is a Target created
// (and reused across the whole fixture) on first mention.
//
// ParseFixture returns the built Graph plus a label -> Node index for
// every "node"/"call"/"callext" line, so callers can look up the
// fixture's nodes by the labels used in the source text.
func ParseFixture(src string) (*Graph, map[string]*Node, error) {
	g := NewGraph()
	targets := map[string]*Target{}
	subgraphs := map[string]*Subgraph{}
	blocks := map[string]map[string]*BBlock{}
	nodes := map[string]*Node{}

	var cur *Subgraph
	var curBlocks map[string]*BBlock

	lineNo := 0
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "sub":
			if len(fields) != 2 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: want \"sub <name>\"", lineNo, line)
			}
			name := fields[1]
			if _, ok := subgraphs[name]; ok {
				return nil, nil, fmt.Errorf("rwgraph: line %d: subgraph %q declared twice", lineNo, name)
			}
			cur = g.NewSubgraph(name)
			subgraphs[name] = cur
			curBlocks = map[string]*BBlock{}
			blocks[name] = curBlocks

		case "block":
			if cur == nil {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: block declared before any sub", lineNo, line)
			}
			if len(fields) != 2 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: want \"block <label>\"", lineNo, line)
			}
			label := fields[1]
			if _, ok := curBlocks[label]; ok {
				return nil, nil, fmt.Errorf("rwgraph: line %d: block %q declared twice in subgraph %q", lineNo, label, cur.Name())
			}
			curBlocks[label] = cur.NewBlock()

		case "edge":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: want \"edge <from> <to>\"", lineNo, line)
			}
			from, err := lookupBlock(curBlocks, fields[1], lineNo, line)
			if err != nil {
				return nil, nil, err
			}
			to, err := lookupBlock(curBlocks, fields[2], lineNo, line)
			if err != nil {
				return nil, nil, err
			}
			from.AddEdgeTo(to)

		case "node":
			if len(fields) < 6 || (len(fields)-3)%4 != 0 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: malformed node line", lineNo, line)
			}
			block, err := lookupBlock(curBlocks, fields[1], lineNo, line)
			if err != nil {
				return nil, nil, err
			}
			label := fields[2]
			n := g.Create(Plain)
			if err := applyDefSiteGroups(n, fields[3:], targets, g, lineNo, line); err != nil {
				return nil, nil, err
			}
			block.Append(n)
			if err := registerLabel(nodes, label, n, lineNo, line); err != nil {
				return nil, nil, err
			}

		case "call":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: want \"call <block> <label> <sub> ...\"", lineNo, line)
			}
			block, err := lookupBlock(curBlocks, fields[1], lineNo, line)
			if err != nil {
				return nil, nil, err
			}
			label := fields[2]
			var callees []*Subgraph
			for _, name := range fields[3:] {
				s, ok := subgraphs[name]
				if !ok {
					return nil, nil, fmt.Errorf("rwgraph: line %d: %q: unknown callee subgraph %q", lineNo, line, name)
				}
				callees = append(callees, s)
			}
			n := g.Create(Call)
			n.SetCallees(callees...)
			block.Append(n)
			if err := registerLabel(nodes, label, n, lineNo, line); err != nil {
				return nil, nil, err
			}

		case "callext":
			if len(fields) < 7 {
				return nil, nil, fmt.Errorf("rwgraph: line %d: %q: want \"callext <block> <label> <kind> <target> <off> <len> ...\"", lineNo, line)
			}
			block, err := lookupBlock(curBlocks, fields[1], lineNo, line)
			if err != nil {
				return nil, nil, err
			}
			label := fields[2]
			summary := g.Create(Plain)
			if err := applyDefSiteGroups(summary, fields[3:], targets, g, lineNo, line); err != nil {
				return nil, nil, err
			}
			n := g.Create(Call)
			n.SetUndefined(summary)
			block.Append(n)
			if err := registerLabel(nodes, label, n, lineNo, line); err != nil {
				return nil, nil, err
			}

		default:
			return nil, nil, fmt.Errorf("rwgraph: line %d: %q: unknown directive %q", lineNo, line, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("rwgraph: scanning fixture: %w", err)
	}

	return g, nodes, nil
}

func registerLabel(nodes map[string]*Node, label string, n *Node, lineNo int, line string) error {
	if _, ok := nodes[label]; ok {
		return fmt.Errorf("rwgraph: line %d: %q: label %q already used", lineNo, line, label)
	}
	nodes[label] = n
	return nil
}

func lookupBlock(blocks map[string]*BBlock, label string, lineNo int, line string) (*BBlock, error) {
	b, ok := blocks[label]
	if !ok {
		return nil, fmt.Errorf("rwgraph: line %d: %q: unknown block %q", lineNo, line, label)
	}
	return b, nil
}

// applyDefSiteGroups consumes fields in groups of 4 ("<kind> <target>
// <off> <len>") and applies each as a DefSite on n.
func applyDefSiteGroups(n *Node, fields []string, targets map[string]*Target, g *Graph, lineNo int, line string) error {
	if len(fields)%4 != 0 {
		return fmt.Errorf("rwgraph: line %d: %q: malformed DefSite group", lineNo, line)
	}
	for i := 0; i < len(fields); i += 4 {
		kind := fields[i]
		target := resolveTarget(targets, fields[i+1])
		off, err := parseOffset(fields[i+2])
		if err != nil {
			return fmt.Errorf("rwgraph: line %d: %q: %w", lineNo, line, err)
		}
		length, err := parseOffset(fields[i+3])
		if err != nil {
			return fmt.Errorf("rwgraph: line %d: %q: %w", lineNo, line, err)
		}
		ds := DefSite{Target: target, Offset: off, Length: length}
		switch kind {
		case "def":
			n.AddDefs(ds)
		case "store":
			n.AddOverwrites(ds)
		case "load":
			n.AddUse(ds)
		default:
			return fmt.Errorf("rwgraph: line %d: %q: unknown DefSite kind %q (want def/store/load)", lineNo, line, kind)
		}
	}
	return nil
}

func resolveTarget(targets map[string]*Target, name string) *Target {
	if name == "unknown" {
		return UnknownTarget
	}
	if t, ok := targets[name]; ok {
		return t
	}
	t := NewTarget(name)
	targets[name] = t
	return t
}

func parseOffset(s string) (Offset, error) {
	if s == "?" {
		return OffsetUnknown, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset/length %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative offset/length %q", s)
	}
	return Offset(v), nil
}
