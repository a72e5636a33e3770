package routing

import (
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
)

// DimensionOrder aligns one coordinate at a time following a fixed order. It
// only offers minimal ports in the first dimension that still differs. The
// dimension of a router link is its link class.
type DimensionOrder struct {
	topology topology.Topology
	numVC    int
	order    []int
}

// Candidates returns the minimal candidates in the first unaligned
// dimension.
func (r *DimensionOrder) Candidates(
	router, _, _ int,
	packet *messaging.Packet,
) ([]Candidate, error) {
	target, serverPort := destinationRouter(r.topology, packet)

	distance := r.topology.Distance(router, target)
	if distance == 0 {
		return allVCs(serverPort, r.numVC, 0, 0), nil
	}

	here := r.topology.Coordinates(router)
	there := r.topology.Coordinates(target)

	for _, d := range r.order {
		if here[d] == there[d] {
			continue
		}

		candidates := r.minimalPortsInDimension(router, target, d, distance)
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	return nil, noRouteError(router, packet)
}

func (r *DimensionOrder) minimalPortsInDimension(
	router, target, dim, distance int,
) []Candidate {
	var candidates []Candidate

	for p := 0; p < r.topology.MaximumDegree(); p++ {
		loc, class := r.topology.Neighbour(router, p)
		if !loc.IsRouter() || class != dim {
			continue
		}

		if r.topology.Distance(loc.Router, target) == distance-1 {
			candidates = append(candidates, allVCs(p, r.numVC, 0, distance)...)
		}
	}

	return candidates
}
