package routing

import (
	"sort"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// DependencyGraph is the channel-dependency graph of a routing algorithm over
// a topology. A channel is a (router, port, vc) triple on a router-to-router
// link. Channel c depends on c' when a packet holding c may request c' next.
//
// Channels are addressed by index and edges are integer lists, so the graph
// can be read concurrently once built.
type DependencyGraph struct {
	numPorts int
	numVC    int
	succ     [][]int
	cyclic   []bool
	classes  []int

	// cycleClasses lists, per strongly connected component with a cycle,
	// the link classes its channels belong to.
	cycleClasses [][]int
}

// BuildChannelDependencyGraph enumerates, for every destination router, the
// channels the algorithm may use and the dependencies between them. It relies
// on the algorithm ignoring the input port, which holds for Shortest,
// DimensionOrder and TableRouting.
func BuildChannelDependencyGraph(
	t topology.Topology,
	alg Algorithm,
	numVC int,
) (*DependencyGraph, error) {
	g := &DependencyGraph{
		numPorts: t.MaximumDegree(),
		numVC:    numVC,
	}
	numChannels := t.NumRouters() * g.numPorts * numVC
	g.succ = make([][]int, numChannels)
	g.cyclic = make([]bool, numChannels)
	g.classes = make([]int, numChannels)

	for r := 0; r < t.NumRouters(); r++ {
		for p := 0; p < g.numPorts; p++ {
			class := topology.LinkClass(t, r, p)
			for vc := 0; vc < numVC; vc++ {
				g.classes[g.Index(r, p, vc)] = class
			}
		}
	}

	edges := make(map[[2]int]bool)

	for dst := 0; dst < t.NumRouters(); dst++ {
		packet := &messaging.Packet{
			ID:          "dependency-scan",
			Destination: t.ServersAt(dst)[0],
		}

		if err := g.addDependencies(t, alg, packet, edges); err != nil {
			return nil, err
		}
	}

	g.markCycles()

	return g, nil
}

func (g *DependencyGraph) addDependencies(
	t topology.Topology,
	alg Algorithm,
	packet *messaging.Packet,
	edges map[[2]int]bool,
) error {
	candidatesAt := make([][]Candidate, t.NumRouters())

	for r := range candidatesAt {
		c, err := alg.Candidates(r, t.MaximumDegree(), 0, packet)
		if err != nil {
			return err
		}

		candidatesAt[r] = c
	}

	for r, candidates := range candidatesAt {
		for _, c := range candidates {
			if c.Port >= g.numPorts {
				continue
			}

			loc, _ := t.Neighbour(r, c.Port)
			if !loc.IsRouter() {
				continue
			}

			from := g.Index(r, c.Port, c.VC)

			for _, next := range candidatesAt[loc.Router] {
				if next.Port >= g.numPorts {
					continue
				}

				to := g.Index(loc.Router, next.Port, next.VC)
				key := [2]int{from, to}

				if !edges[key] {
					edges[key] = true
					g.succ[from] = append(g.succ[from], to)
				}
			}
		}
	}

	return nil
}

func (g *DependencyGraph) markCycles() {
	dg := simple.NewDirectedGraph()
	for c := range g.succ {
		dg.AddNode(simple.Node(c))
	}

	for from, tos := range g.succ {
		for _, to := range tos {
			if from == to {
				g.cyclic[from] = true
				g.cycleClasses = append(g.cycleClasses,
					[]int{g.classes[from]})

				continue
			}

			dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}

		seen := make(map[int]bool)
		var classes []int

		for _, n := range scc {
			g.cyclic[n.ID()] = true

			class := g.classes[n.ID()]
			if !seen[class] {
				seen[class] = true
				classes = append(classes, class)
			}
		}

		sort.Ints(classes)
		g.cycleClasses = append(g.cycleClasses, classes)
	}
}

// CycleClasses returns, for every group of channels that depend on each
// other in a cycle, the sorted link classes of those channels.
func (g *DependencyGraph) CycleClasses() [][]int {
	return g.cycleClasses
}

// HasMixedClassCycle tells whether a dependency cycle uses links of more than
// one class. Bubble flow control only breaks cycles that stay within one
// ring, so such cycles can still deadlock.
func (g *DependencyGraph) HasMixedClassCycle() bool {
	for _, classes := range g.cycleClasses {
		if len(classes) > 1 {
			return true
		}
	}

	return false
}

// Index returns the index of a channel.
func (g *DependencyGraph) Index(router, port, vc int) int {
	return (router*g.numPorts+port)*g.numVC + vc
}

// NumChannels returns the number of channels, used or not.
func (g *DependencyGraph) NumChannels() int {
	return len(g.succ)
}

// Successors returns the channels that the given channel depends on.
func (g *DependencyGraph) Successors(channel int) []int {
	return g.succ[channel]
}

// Cyclic tells whether the channel lies on a dependency cycle. Server ports
// are never cyclic.
func (g *DependencyGraph) Cyclic(router, port, vc int) bool {
	if port >= g.numPorts {
		return false
	}

	return g.cyclic[g.Index(router, port, vc)]
}

// HasCycle tells whether any channel lies on a dependency cycle.
func (g *DependencyGraph) HasCycle() bool {
	for _, c := range g.cyclic {
		if c {
			return true
		}
	}

	return false
}
