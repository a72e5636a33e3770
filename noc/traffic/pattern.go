package traffic

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Pattern maps a source server to a destination server.
type Pattern interface {
	Destination(source int) int
}

// Kinds of pattern that the builder understands.
const (
	PatternCartesianTransform = "cartesian_transform"
	PatternUniform            = "uniform"
	PatternIdentity           = "identity"
	PatternRandomPermutation  = "random_permutation"
)

// PatternBuilder can build patterns.
type PatternBuilder struct {
	kind       string
	numServers int
	sides      []int
	shift      []int
	complement []bool
	rng        *rand.Rand
}

// MakePatternBuilder creates a builder for uniform patterns.
func MakePatternBuilder() PatternBuilder {
	return PatternBuilder{kind: PatternUniform}
}

// WithKind sets the pattern kind.
func (b PatternBuilder) WithKind(kind string) PatternBuilder {
	b.kind = kind
	return b
}

// WithNumServers sets the number of servers.
func (b PatternBuilder) WithNumServers(n int) PatternBuilder {
	b.numServers = n
	return b
}

// WithSides sets the coordinate space of a Cartesian transform. The product
// of the sides must equal the number of servers.
func (b PatternBuilder) WithSides(sides []int) PatternBuilder {
	b.sides = append([]int(nil), sides...)
	return b
}

// WithShift sets the per-dimension shift of a Cartesian transform.
func (b PatternBuilder) WithShift(shift []int) PatternBuilder {
	b.shift = append([]int(nil), shift...)
	return b
}

// WithComplement sets the dimensions that a Cartesian transform mirrors.
func (b PatternBuilder) WithComplement(complement []bool) PatternBuilder {
	b.complement = append([]bool(nil), complement...)
	return b
}

// WithRand sets the random stream of the pattern.
func (b PatternBuilder) WithRand(rng *rand.Rand) PatternBuilder {
	b.rng = rng
	return b
}

// Build creates the pattern.
func (b PatternBuilder) Build() (Pattern, error) {
	if b.numServers < 1 {
		return nil, sim.NewConfigurationError("traffic.pattern",
			"needs at least one server, got %d", b.numServers)
	}

	switch b.kind {
	case PatternCartesianTransform:
		return b.buildCartesianTransform()
	case PatternUniform:
		b.randMustBeGiven()
		return &Uniform{numServers: b.numServers, rng: b.rng}, nil
	case PatternIdentity:
		return Identity{}, nil
	case PatternRandomPermutation:
		b.randMustBeGiven()
		return RandomPermutation{perm: b.rng.Perm(b.numServers)}, nil
	default:
		return nil, sim.NewConfigurationError("traffic.pattern.type",
			"unknown pattern %q", b.kind)
	}
}

func (b PatternBuilder) randMustBeGiven() {
	if b.rng == nil {
		panic("pattern needs a random stream")
	}
}

func (b PatternBuilder) buildCartesianTransform() (Pattern, error) {
	sides := b.sides
	if len(sides) == 0 {
		sides = []int{b.numServers}
	}

	size := 1
	for _, side := range sides {
		if side < 1 {
			return nil, sim.NewConfigurationError("traffic.pattern.sides",
				"sides must be positive, got %v", sides)
		}

		size *= side
	}

	if size != b.numServers {
		return nil, sim.NewConfigurationError("traffic.pattern.sides",
			"%v covers %d servers, the network has %d",
			sides, size, b.numServers)
	}

	if len(b.shift) > len(sides) {
		return nil, sim.NewConfigurationError("traffic.pattern.shift",
			"%v has more dimensions than %v", b.shift, sides)
	}

	if len(b.complement) > len(sides) {
		return nil, sim.NewConfigurationError("traffic.pattern.complement",
			"%v has more dimensions than %v", b.complement, sides)
	}

	t := &CartesianTransform{
		sides:      sides,
		shift:      make([]int, len(sides)),
		complement: make([]bool, len(sides)),
	}
	copy(t.shift, b.shift)
	copy(t.complement, b.complement)

	return t, nil
}

// CartesianTransform sees servers as points of a grid. It mirrors the
// complemented dimensions and then shifts every coordinate, wrapping around.
type CartesianTransform struct {
	sides      []int
	shift      []int
	complement []bool
}

// Destination implements Pattern.
func (t *CartesianTransform) Destination(source int) int {
	dst := 0
	stride := 1

	for d, side := range t.sides {
		c := source / stride % side
		if t.complement[d] {
			c = side - 1 - c
		}

		c = ((c+t.shift[d])%side + side) % side
		dst += c * stride
		stride *= side
	}

	return dst
}

// Uniform picks any other server with equal probability.
type Uniform struct {
	numServers int
	rng        *rand.Rand
}

// Destination implements Pattern.
func (u *Uniform) Destination(source int) int {
	if u.numServers == 1 {
		return source
	}

	dst := u.rng.Intn(u.numServers - 1)
	if dst >= source {
		dst++
	}

	return dst
}

// Identity sends every server to itself. It is only useful to exercise the
// handling of self-addressed messages.
type Identity struct{}

// Destination implements Pattern.
func (Identity) Destination(source int) int {
	return source
}

// RandomPermutation is a fixed permutation drawn when the pattern is built.
type RandomPermutation struct {
	perm []int
}

// Destination implements Pattern.
func (p RandomPermutation) Destination(source int) int {
	return p.perm[source]
}
