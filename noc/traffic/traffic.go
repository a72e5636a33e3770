// Package traffic generates the messages that servers inject into the
// network and models the servers themselves.
package traffic

import (
	"errors"
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// ErrSelfMessage is returned when the pattern sends a server to itself. The
// message is not created.
var ErrSelfMessage = errors.New("message addressed to its own source")

// A Traffic decides when servers create messages and where they go.
type Traffic interface {
	// Generate returns the message the server creates at the cycle, or nil.
	Generate(server int, now sim.Cycle) (*messaging.Message, error)

	// Finished tells whether no server will ever generate again.
	Finished(now sim.Cycle) bool
}

// Kinds of traffic that the builder understands.
const (
	KindBurst       = "burst"
	KindHomogeneous = "homogeneous"
)

// Builder can build traffics.
type Builder struct {
	kind              string
	pattern           Pattern
	numServers        int
	messagesPerServer int
	messageSize       int
	load              float64
	cycles            int
	rng               *rand.Rand
	idGen             sim.IDGenerator
}

// MakeBuilder creates a builder for a burst of one single-flit message per
// server.
func MakeBuilder() Builder {
	return Builder{
		kind:              KindBurst,
		messagesPerServer: 1,
		messageSize:       1,
	}
}

// WithKind sets the traffic kind.
func (b Builder) WithKind(kind string) Builder {
	b.kind = kind
	return b
}

// WithPattern sets the destination pattern.
func (b Builder) WithPattern(p Pattern) Builder {
	b.pattern = p
	return b
}

// WithNumServers sets the number of servers.
func (b Builder) WithNumServers(n int) Builder {
	b.numServers = n
	return b
}

// WithMessagesPerServer sets how many messages each server sends in a burst.
func (b Builder) WithMessagesPerServer(n int) Builder {
	b.messagesPerServer = n
	return b
}

// WithMessageSize sets the size of every message, in flits.
func (b Builder) WithMessageSize(n int) Builder {
	b.messageSize = n
	return b
}

// WithLoad sets the offered load of homogeneous traffic, in flits per cycle
// per server.
func (b Builder) WithLoad(load float64) Builder {
	b.load = load
	return b
}

// WithCycles sets how long homogeneous traffic generates. Zero means
// forever.
func (b Builder) WithCycles(n int) Builder {
	b.cycles = n
	return b
}

// WithRand sets the random stream of the traffic.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithIDGenerator sets the generator of message IDs.
func (b Builder) WithIDGenerator(g sim.IDGenerator) Builder {
	b.idGen = g
	return b
}

// Build creates the traffic.
func (b Builder) Build() (Traffic, error) {
	if b.pattern == nil {
		panic("traffic needs a pattern")
	}

	if b.idGen == nil {
		b.idGen = sim.NewSequentialIDGenerator()
	}

	if b.messageSize < 1 {
		return nil, sim.NewConfigurationError("traffic.message_size",
			"must be positive, got %d", b.messageSize)
	}

	switch b.kind {
	case KindBurst:
		return b.buildBurst()
	case KindHomogeneous:
		return b.buildHomogeneous()
	default:
		return nil, sim.NewConfigurationError("traffic.type",
			"unknown traffic %q", b.kind)
	}
}

func (b Builder) buildBurst() (Traffic, error) {
	if b.messagesPerServer < 0 {
		return nil, sim.NewConfigurationError("traffic.messages_per_server",
			"must not be negative, got %d", b.messagesPerServer)
	}

	t := &Burst{
		generator: generator{
			pattern:     b.pattern,
			messageSize: b.messageSize,
			idGen:       b.idGen,
		},
		pending: make([]int, b.numServers),
	}

	for i := range t.pending {
		t.pending[i] = b.messagesPerServer
		t.totalPending += b.messagesPerServer
	}

	return t, nil
}

func (b Builder) buildHomogeneous() (Traffic, error) {
	if b.load <= 0 || b.load > 1 {
		return nil, sim.NewConfigurationError("traffic.load",
			"must be in (0, 1], got %g", b.load)
	}

	if b.cycles < 0 {
		return nil, sim.NewConfigurationError("traffic.cycles",
			"must not be negative, got %d", b.cycles)
	}

	if b.rng == nil {
		panic("homogeneous traffic needs a random stream")
	}

	return &Homogeneous{
		generator: generator{
			pattern:     b.pattern,
			messageSize: b.messageSize,
			idGen:       b.idGen,
		},
		probability: b.load / float64(b.messageSize),
		cycles:      sim.Cycle(b.cycles),
		rng:         b.rng,
	}, nil
}

type generator struct {
	pattern     Pattern
	messageSize int
	idGen       sim.IDGenerator
}

func (g generator) newMessage(
	server int,
	now sim.Cycle,
) (*messaging.Message, error) {
	dst := g.pattern.Destination(server)
	if dst == server {
		return nil, ErrSelfMessage
	}

	return &messaging.Message{
		ID:            "msg-" + g.idGen.Generate(),
		Source:        server,
		Destination:   dst,
		Size:          g.messageSize,
		CreationCycle: now,
	}, nil
}

// Burst makes every server send a fixed number of messages as fast as it
// can, one per cycle, and then stop.
type Burst struct {
	generator

	pending      []int
	totalPending int
}

// Generate implements Traffic.
func (t *Burst) Generate(
	server int,
	now sim.Cycle,
) (*messaging.Message, error) {
	if t.pending[server] == 0 {
		return nil, nil
	}

	t.pending[server]--
	t.totalPending--

	return t.newMessage(server, now)
}

// Finished implements Traffic.
func (t *Burst) Finished(_ sim.Cycle) bool {
	return t.totalPending == 0
}

// Homogeneous makes every server create a message each cycle with a fixed
// probability, so that the offered load is constant.
type Homogeneous struct {
	generator

	probability float64
	cycles      sim.Cycle
	rng         *rand.Rand
}

// Generate implements Traffic.
func (t *Homogeneous) Generate(
	server int,
	now sim.Cycle,
) (*messaging.Message, error) {
	if t.Finished(now) {
		return nil, nil
	}

	if t.rng.Float64() >= t.probability {
		return nil, nil
	}

	return t.newMessage(server, now)
}

// Finished implements Traffic.
func (t *Homogeneous) Finished(now sim.Cycle) bool {
	return t.cycles > 0 && now >= t.cycles
}
