package router

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/noc/arbitration"
	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"github.com/nakacristo/caminos-lib-sub002/noc/vcpolicy"
	"github.com/nakacristo/caminos-lib-sub002/pipelining"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// Builder can build routers.
type Builder struct {
	topology          topology.Topology
	routing           routing.Algorithm
	policies          vcpolicy.Chain
	allocatorKind     string
	dependencies      *routing.DependencyGraph
	rng               *rand.Rand
	numVC             int
	bufferSize        int
	outputBufferSize  int
	crossbarDelay     int
	maxPacketSize     int
	bubble            bool
	neglectBusyOutput bool
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		allocatorKind:    arbitration.KindRoundRobin,
		numVC:            1,
		bufferSize:       4,
		outputBufferSize: 4,
		maxPacketSize:    1,
	}
}

// WithTopology sets the topology the router belongs to.
func (b Builder) WithTopology(t topology.Topology) Builder {
	b.topology = t
	return b
}

// WithRouting sets the routing algorithm.
func (b Builder) WithRouting(alg routing.Algorithm) Builder {
	b.routing = alg
	return b
}

// WithPolicies sets the VC policy chain.
func (b Builder) WithPolicies(chain vcpolicy.Chain) Builder {
	b.policies = chain
	return b
}

// WithAllocator sets the switch allocator kind.
func (b Builder) WithAllocator(kind string) Builder {
	b.allocatorKind = kind
	return b
}

// WithDependencyGraph sets the channel-dependency graph that tells which
// channels need bubble protection.
func (b Builder) WithDependencyGraph(g *routing.DependencyGraph) Builder {
	b.dependencies = g
	return b
}

// WithRand sets the random stream owned by the router.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithNumVC sets the number of virtual channels per port.
func (b Builder) WithNumVC(n int) Builder {
	b.numVC = n
	return b
}

// WithBufferSize sets the capacity of each input VC, in flits.
func (b Builder) WithBufferSize(n int) Builder {
	b.bufferSize = n
	return b
}

// WithOutputBufferSize sets the capacity of each output VC, in flits.
func (b Builder) WithOutputBufferSize(n int) Builder {
	b.outputBufferSize = n
	return b
}

// WithCrossbarDelay sets the number of cycles a flit spends in the crossbar.
func (b Builder) WithCrossbarDelay(n int) Builder {
	b.crossbarDelay = n
	return b
}

// WithMaxPacketSize sets the largest packet size, in flits.
func (b Builder) WithMaxPacketSize(n int) Builder {
	b.maxPacketSize = n
	return b
}

// WithBubble enables bubble flow control.
func (b Builder) WithBubble(on bool) Builder {
	b.bubble = on
	return b
}

// WithNeglectBusyOutput makes the router drop candidates whose output VC is
// owned instead of marking them as not allowed.
func (b Builder) WithNeglectBusyOutput(on bool) Builder {
	b.neglectBusyOutput = on
	return b
}

// Validate checks the parameters shared by all routers.
func (b Builder) Validate() error {
	if b.numVC < 1 {
		return sim.NewConfigurationError("router.virtual_channels",
			"must be positive, got %d", b.numVC)
	}

	if b.bufferSize < 1 {
		return sim.NewConfigurationError("router.buffer_size",
			"must be positive, got %d", b.bufferSize)
	}

	if b.outputBufferSize < 1 {
		return sim.NewConfigurationError("router.output_buffer_size",
			"must be positive, got %d", b.outputBufferSize)
	}

	if b.crossbarDelay < 0 {
		return sim.NewConfigurationError("router.crossbar_delay",
			"must not be negative, got %d", b.crossbarDelay)
	}

	if b.maxPacketSize < 1 {
		return sim.NewConfigurationError("maximum_packet_size",
			"must be positive, got %d", b.maxPacketSize)
	}

	if b.bubble {
		return link.ValidateBubble(
			b.bufferSize, b.outputBufferSize, b.maxPacketSize)
	}

	return nil
}

// Build creates the router with the given index.
func (b Builder) Build(name string, index int) (*Router, error) {
	b.topologyMustBeGiven()
	b.routingMustBeGiven()

	if err := b.Validate(); err != nil {
		return nil, err
	}

	rng := b.rng
	if rng == nil {
		rng = sim.NewPartitionedRNG(0).ForSubsystem(sim.SubsystemRouter(index))
	}

	numPorts := b.topology.Ports(index)

	allocator, err := arbitration.MakeBuilder().
		WithKind(b.allocatorKind).
		WithNumInputs(numPorts).
		WithNumOutputs(numPorts).
		WithNumTags(b.numVC).
		WithRand(rng).
		Build()
	if err != nil {
		return nil, err
	}

	r := &Router{
		name:          name,
		index:         index,
		topology:      b.topology,
		routing:       b.routing,
		policies:      b.policies,
		allocator:     allocator,
		dependencies:  b.dependencies,
		rng:           rng,
		numVC:         b.numVC,
		maxPacketSize: b.maxPacketSize,
		bubble:        b.bubble,
		neglectBusy:   b.neglectBusyOutput,
	}

	for p := 0; p < numPorts; p++ {
		r.ports = append(r.ports,
			newPort(name, p, b.numVC, b.bufferSize, b.outputBufferSize))
	}

	r.crossbar, err = pipelining.MakeBuilder().
		WithPipelineWidth(numPorts).
		WithNumStage(b.crossbarDelay).
		WithCyclePerStage(1).
		WithPostPipelineBuffer(&crossbarSink{router: r}).
		Build(name + ".Crossbar")
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (b Builder) topologyMustBeGiven() {
	if b.topology == nil {
		panic("router requires a topology")
	}
}

func (b Builder) routingMustBeGiven() {
	if b.routing == nil {
		panic("router requires a routing algorithm")
	}
}
