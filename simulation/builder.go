package simulation

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/config"
	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/router"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"github.com/nakacristo/caminos-lib-sub002/noc/traffic"
	"github.com/nakacristo/caminos-lib-sub002/noc/vcpolicy"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg         *config.Config
	parallelism int
}

// MakeBuilder creates a new builder that uses the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: config.Default(),
	}
}

// WithConfig sets the configuration to build from.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithParallelism overrides the number of router workers of the
// configuration.
func (b Builder) WithParallelism(n int) Builder {
	b.parallelism = n
	return b
}

// Build validates the configuration and creates the network. Every problem
// found is returned as a *sim.ConfigurationError.
func (b Builder) Build() (*Simulation, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:          xid.New().String(),
		cfg:         cfg,
		queue:       sim.NewEventQueue(),
		parallelism: max(cfg.Parallelism, 1),
		flitSize:    cfg.Router.FlitSize,
	}

	if b.parallelism > 0 {
		s.parallelism = b.parallelism
	}

	rng := sim.NewPartitionedRNG(cfg.RandomSeed)
	idGen := sim.NewSequentialIDGenerator()

	steps := []func(*sim.PartitionedRNG, sim.IDGenerator) error{
		s.buildTopology,
		s.buildRouters,
		s.buildTraffic,
	}

	for _, step := range steps {
		if err := step(rng, idGen); err != nil {
			return nil, err
		}
	}

	s.connect()

	log.WithFields(log.Fields{
		"run":      s.id,
		"topology": cfg.Topology.Type,
		"routers":  len(s.routers),
		"servers":  len(s.servers),
		"diameter": s.topology.Diameter(),
	}).Debug("network built")

	return s, nil
}

func (s *Simulation) buildTopology(_ *sim.PartitionedRNG, _ sim.IDGenerator) error {
	cfg := s.cfg

	t, err := topology.MakeBuilder().
		WithKind(cfg.Topology.Type).
		WithSides(cfg.Topology.Sides).
		WithServersPerRouter(cfg.Topology.ServersPerRouter).
		Build()
	if err != nil {
		return err
	}

	s.topology = t

	s.classes, err = link.MakeClasses(cfg.LinkDelays(t.NumLinkClasses()))

	return err
}

func (s *Simulation) buildRouters(
	rng *sim.PartitionedRNG,
	_ sim.IDGenerator,
) error {
	cfg := s.cfg
	rc := cfg.Router

	alg, err := routing.MakeBuilder().
		WithKind(cfg.Routing.Type).
		WithTopology(s.topology).
		WithNumVC(rc.VirtualChannels).
		WithDimensionOrder(cfg.Routing.Order).
		Build()
	if err != nil {
		return err
	}

	s.dependencies, err = routing.BuildChannelDependencyGraph(
		s.topology, alg, rc.VirtualChannels)
	if err != nil {
		return err
	}

	if s.dependencies.HasCycle() && !rc.Bubble {
		log.Warnf("%s routing on a %s has a cyclic channel dependency "+
			"graph and bubble is off, the network may deadlock",
			cfg.Routing.Type, cfg.Topology.Type)
	}

	policies, err := vcpolicy.Build(rc.VirtualChannelPolicies)
	if err != nil {
		return err
	}

	rb := router.MakeBuilder().
		WithTopology(s.topology).
		WithRouting(alg).
		WithPolicies(policies).
		WithAllocator(rc.Allocator).
		WithDependencyGraph(s.dependencies).
		WithNumVC(rc.VirtualChannels).
		WithBufferSize(rc.BufferSize).
		WithOutputBufferSize(rc.OutputBufferSize).
		WithCrossbarDelay(rc.CrossbarDelay).
		WithMaxPacketSize(cfg.MaximumPacketSize).
		WithBubble(rc.Bubble).
		WithNeglectBusyOutput(rc.NeglectBusyOutput)

	if err := rb.Validate(); err != nil {
		return err
	}

	if rc.Bubble && s.dependencies.HasMixedClassCycle() {
		if !slices.Contains(rc.VirtualChannelPolicies, vcpolicy.NameHops) {
			return sim.NewConfigurationError("router.bubble",
				"%s routing on a %s has dependency cycles across link "+
					"classes, bubble only breaks cycles within a ring",
				cfg.Routing.Type, cfg.Topology.Type)
		}

		log.Debugf("dependency cycles across link classes are left to "+
			"the %s virtual channel policy", vcpolicy.NameHops)
	}

	for i := 0; i < s.topology.NumRouters(); i++ {
		r, err := rb.
			WithRand(rng.ForSubsystem(sim.SubsystemRouter(i))).
			Build(fmt.Sprintf("Router[%d]", i), i)
		if err != nil {
			return err
		}

		s.routers = append(s.routers, r)
	}

	return nil
}

func (s *Simulation) buildTraffic(
	rng *sim.PartitionedRNG,
	idGen sim.IDGenerator,
) error {
	cfg := s.cfg
	tc := cfg.Traffic
	numServers := s.topology.NumServers()

	pattern, err := traffic.MakePatternBuilder().
		WithKind(tc.Pattern.Type).
		WithNumServers(numServers).
		WithSides(tc.Pattern.Sides).
		WithShift(tc.Pattern.Shift).
		WithComplement(tc.Pattern.Complement).
		WithRand(rng.ForSubsystem(sim.SubsystemPattern)).
		Build()
	if err != nil {
		return err
	}

	s.traffic, err = traffic.MakeBuilder().
		WithKind(tc.Type).
		WithPattern(pattern).
		WithNumServers(numServers).
		WithMessagesPerServer(tc.MessagesPerServer).
		WithMessageSize(tc.MessageSize).
		WithLoad(tc.Load).
		WithCycles(tc.Cycles).
		WithRand(rng.ForSubsystem(sim.SubsystemTraffic)).
		WithIDGenerator(idGen).
		Build()
	if err != nil {
		return err
	}

	for i := 0; i < numServers; i++ {
		s.servers = append(s.servers, traffic.NewServer(
			fmt.Sprintf("Server[%d]", i), i,
			s.traffic, cfg.MaximumPacketSize, idGen))
	}

	return nil
}

// connect wires every router port and every server. Ejection ports get the
// same per-VC capacity as router inputs.
func (s *Simulation) connect() {
	numVC := s.cfg.Router.VirtualChannels

	for i, r := range s.routers {
		for p := 0; p < s.topology.Ports(i); p++ {
			loc, class := s.topology.Neighbour(i, p)

			switch {
			case loc.IsRouter():
				remote := s.routers[loc.Router]
				r.ConnectPort(p, remote, loc.Port,
					remote.InputCapacity(), s.classes[class])
			case loc.IsServer():
				r.ConnectPort(p, s.servers[loc.Server], 0,
					r.InputCapacity(), s.classes[class])
			}
		}
	}

	for i, srv := range s.servers {
		loc, class := s.topology.ServerNeighbour(i)
		r := s.routers[loc.Router]
		srv.ConnectRouter(r, loc.Port, numVC, r.InputCapacity(),
			s.classes[class])
	}
}
