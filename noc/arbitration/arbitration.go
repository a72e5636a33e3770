// Package arbitration provides switch allocators that match requesting input
// ports to output ports.
package arbitration

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Request asks to move a flit from an input port to an output port. Tag
// identifies the requester within the input port, usually its virtual
// channel.
type Request struct {
	Input  int
	Output int
	Tag    int
}

// An Allocator grants a set of requests so that every input and every output
// appears at most once.
type Allocator interface {
	Allocate(requests []Request) []Request
}

// Kinds of allocator that the builder understands.
const (
	KindRoundRobin = "round_robin"
	KindRandom     = "random"
)

// A Builder can build allocators.
type Builder struct {
	kind       string
	numInputs  int
	numOutputs int
	numTags    int
	rng        *rand.Rand
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		kind:    KindRoundRobin,
		numTags: 1,
	}
}

// WithKind sets the allocator kind: round_robin or random.
func (b Builder) WithKind(kind string) Builder {
	b.kind = kind
	return b
}

// WithNumInputs sets the number of input ports.
func (b Builder) WithNumInputs(n int) Builder {
	b.numInputs = n
	return b
}

// WithNumOutputs sets the number of output ports.
func (b Builder) WithNumOutputs(n int) Builder {
	b.numOutputs = n
	return b
}

// WithNumTags sets the number of requesters per input port.
func (b Builder) WithNumTags(n int) Builder {
	b.numTags = n
	return b
}

// WithRand sets the random stream used by the random allocator.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// Build creates the allocator.
func (b Builder) Build() (Allocator, error) {
	if b.numInputs < 1 || b.numOutputs < 1 || b.numTags < 1 {
		panic("allocator dimensions must be positive")
	}

	switch b.kind {
	case KindRoundRobin:
		return &RoundRobin{
			numTags:    b.numTags,
			numInputs:  b.numInputs,
			inputPtrs:  make([]int, b.numInputs),
			outputPtrs: make([]int, b.numOutputs),
		}, nil
	case KindRandom:
		if b.rng == nil {
			panic("random allocator needs a random stream")
		}

		return &Random{rng: b.rng, numOutputs: b.numOutputs}, nil
	default:
		return nil, sim.NewConfigurationError(
			"router.allocator", "unknown allocator %q", b.kind)
	}
}
