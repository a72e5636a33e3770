package topology

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// Kinds of topology that the builder understands.
const (
	KindMesh    = "mesh"
	KindTorus   = "torus"
	KindHamming = "hamming"
)

// A Builder can build topologies.
type Builder struct {
	kind             string
	sides            []int
	serversPerRouter int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		kind:             KindHamming,
		serversPerRouter: 1,
	}
}

// WithKind sets the topology kind: mesh, torus or hamming.
func (b Builder) WithKind(kind string) Builder {
	b.kind = kind
	return b
}

// WithSides sets the number of routers along each dimension.
func (b Builder) WithSides(sides []int) Builder {
	b.sides = append([]int(nil), sides...)
	return b
}

// WithServersPerRouter sets how many servers attach to each router.
func (b Builder) WithServersPerRouter(n int) Builder {
	b.serversPerRouter = n
	return b
}

// Build creates the topology. Inconsistent parameters return a
// ConfigurationError.
func (b Builder) Build() (Topology, error) {
	c, err := newCartesian(b.sides, b.serversPerRouter)
	if err != nil {
		return nil, err
	}

	switch b.kind {
	case KindMesh:
		return &Mesh{cartesian: c}, nil
	case KindTorus:
		return &Torus{cartesian: c}, nil
	case KindHamming:
		return newHamming(c), nil
	default:
		return nil, sim.NewConfigurationError(
			"topology.type", "unknown topology %q", b.kind)
	}
}
