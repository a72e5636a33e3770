// Package routing decides which output ports and virtual channels a packet
// may take at each router.
package routing

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Candidate is one (output port, virtual channel) pair a packet may request.
type Candidate struct {
	Port int
	VC   int

	// Label ranks candidates for the LowestLabel policy. Lower is preferred.
	Label int

	// EstimatedRemainingHops is the number of router-to-router hops left if
	// this candidate is taken, counting the hop itself.
	EstimatedRemainingHops int

	// RouterAllows is filled in by the router from its live state. It is
	// false when the output VC is owned by another packet or lacks space.
	RouterAllows bool
}

// An Algorithm produces the candidate egresses for a packet at a router. The
// result is non-empty whenever the destination is reachable; at the router
// that serves the destination every candidate targets the server port.
type Algorithm interface {
	Candidates(
		router, inPort, inVC int,
		packet *messaging.Packet,
	) ([]Candidate, error)
}

// Kinds of routing algorithm that the builder understands.
const (
	KindShortest       = "shortest"
	KindDimensionOrder = "dor"
	KindTable          = "table"
)

// A Builder can build routing algorithms.
type Builder struct {
	kind     string
	topology topology.Topology
	numVC    int
	dimOrder []int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		kind:  KindShortest,
		numVC: 1,
	}
}

// WithKind sets the algorithm: shortest, dor or table.
func (b Builder) WithKind(kind string) Builder {
	b.kind = kind
	return b
}

// WithTopology sets the topology to route over.
func (b Builder) WithTopology(t topology.Topology) Builder {
	b.topology = t
	return b
}

// WithNumVC sets the number of virtual channels per port.
func (b Builder) WithNumVC(n int) Builder {
	b.numVC = n
	return b
}

// WithDimensionOrder sets the order in which dimension order routing aligns
// coordinates. It defaults to 0, 1, ..., d-1.
func (b Builder) WithDimensionOrder(order []int) Builder {
	b.dimOrder = append([]int(nil), order...)
	return b
}

// Build creates the algorithm.
func (b Builder) Build() (Algorithm, error) {
	if b.topology == nil {
		panic("topology must be given")
	}

	if b.numVC < 1 {
		return nil, sim.NewConfigurationError(
			"router.virtual_channels", "must be positive, got %d", b.numVC)
	}

	switch b.kind {
	case KindShortest:
		return &Shortest{topology: b.topology, numVC: b.numVC}, nil
	case KindDimensionOrder:
		return b.buildDimensionOrder()
	case KindTable:
		return NewTableRouting(b.topology, b.numVC), nil
	default:
		return nil, sim.NewConfigurationError(
			"routing.type", "unknown routing %q", b.kind)
	}
}

func (b Builder) buildDimensionOrder() (Algorithm, error) {
	numDims := b.topology.NumLinkClasses() - 1

	order := b.dimOrder
	if len(order) == 0 {
		for d := 0; d < numDims; d++ {
			order = append(order, d)
		}
	}

	seen := make(map[int]bool)
	for _, d := range order {
		if d < 0 || d >= numDims || seen[d] {
			return nil, sim.NewConfigurationError(
				"routing.order", "%v is not a permutation of the dimensions",
				order)
		}

		seen[d] = true
	}

	if len(order) != numDims {
		return nil, sim.NewConfigurationError(
			"routing.order", "%v does not cover %d dimensions", order, numDims)
	}

	return &DimensionOrder{
		topology: b.topology,
		numVC:    b.numVC,
		order:    order,
	}, nil
}

// destinationRouter returns the router serving the packet destination and the
// server port on it.
func destinationRouter(
	t topology.Topology,
	packet *messaging.Packet,
) (router, port int) {
	loc, _ := t.ServerNeighbour(packet.Destination)
	return loc.Router, loc.Port
}

func allVCs(port, numVC, label, remaining int) []Candidate {
	candidates := make([]Candidate, numVC)
	for vc := range candidates {
		candidates[vc] = Candidate{
			Port:                   port,
			VC:                     vc,
			Label:                  label,
			EstimatedRemainingHops: remaining,
			RouterAllows:           true,
		}
	}

	return candidates
}

func noRouteError(router int, packet *messaging.Packet) error {
	return fmt.Errorf("no route from router %d to server %d for packet %s",
		router, packet.Destination, packet.ID)
}
