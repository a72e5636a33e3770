package topology

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// AsGraph returns the router-to-router connectivity as an undirected graph.
// Node i is router i and every link weighs 1.
func AsGraph(t Topology) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for r := 0; r < t.NumRouters(); r++ {
		g.AddNode(simple.Node(r))
	}

	for r := 0; r < t.NumRouters(); r++ {
		for p := 0; p < t.MaximumDegree(); p++ {
			loc, _ := t.Neighbour(r, p)
			if !loc.IsRouter() || loc.Router == r {
				continue
			}

			g.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(r),
				T: simple.Node(loc.Router),
				W: 1,
			})
		}
	}

	return g
}

// MeasureDiameter computes the diameter by breadth-first search from every
// router. It fails if the topology is disconnected.
func MeasureDiameter(t Topology) (int, error) {
	g := AsGraph(t)
	diameter := 0

	for r := 0; r < t.NumRouters(); r++ {
		reached := 0
		bf := traverse.BreadthFirst{}
		bf.Walk(g, simple.Node(r), func(_ graph.Node, depth int) bool {
			reached++
			diameter = max(diameter, depth)

			return false
		})

		if reached != t.NumRouters() {
			return 0, fmt.Errorf("router %d reaches %d of %d routers",
				r, reached, t.NumRouters())
		}
	}

	return diameter, nil
}

// DistanceTable holds all-pairs router distances computed with Dijkstra's
// algorithm over AsGraph. Table-driven routing uses it where no closed form
// is wanted.
type DistanceTable struct {
	trees []path.Shortest
}

// NewDistanceTable computes shortest-path trees rooted at every router.
func NewDistanceTable(t Topology) *DistanceTable {
	g := AsGraph(t)
	dt := &DistanceTable{trees: make([]path.Shortest, t.NumRouters())}

	for r := range dt.trees {
		dt.trees[r] = path.DijkstraFrom(simple.Node(r), g)
	}

	return dt
}

// Distance returns the hop count between two routers, or -1 if b cannot be
// reached from a.
func (dt *DistanceTable) Distance(a, b int) int {
	w := dt.trees[a].WeightTo(int64(b))
	if math.IsInf(w, 1) {
		return -1
	}

	return int(w)
}
