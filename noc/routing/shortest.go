package routing

import (
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
)

// Shortest offers every port whose neighbour is strictly closer to the
// destination, on every virtual channel. Ties are kept in port order.
type Shortest struct {
	topology topology.Topology
	numVC    int
}

// Candidates returns the minimal candidates.
func (s *Shortest) Candidates(
	router, _, _ int,
	packet *messaging.Packet,
) ([]Candidate, error) {
	target, serverPort := destinationRouter(s.topology, packet)

	distance := s.topology.Distance(router, target)
	if distance == 0 {
		return allVCs(serverPort, s.numVC, 0, 0), nil
	}

	var candidates []Candidate

	for p := 0; p < s.topology.MaximumDegree(); p++ {
		loc, _ := s.topology.Neighbour(router, p)
		if !loc.IsRouter() {
			continue
		}

		if s.topology.Distance(loc.Router, target) == distance-1 {
			candidates = append(candidates,
				allVCs(p, s.numVC, 0, distance)...)
		}
	}

	if len(candidates) == 0 {
		return nil, noRouteError(router, packet)
	}

	return candidates, nil
}
