// Package config holds the YAML description of a simulation.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nakacristo/caminos-lib-sub002/sim"
	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"
)

// Config is the root of a simulation description.
type Config struct {
	RandomSeed        int64             `yaml:"random_seed"`
	Warmup            int               `yaml:"warmup"`
	Measured          int               `yaml:"measured"`
	MaximumPacketSize int               `yaml:"maximum_packet_size"`
	Parallelism       int               `yaml:"parallelism"`
	Topology          TopologyConfig    `yaml:"topology"`
	Router            RouterConfig      `yaml:"router"`
	Routing           RoutingConfig     `yaml:"routing"`
	LinkClasses       []LinkClassConfig `yaml:"link_classes,omitempty"`
	Traffic           TrafficConfig     `yaml:"traffic"`
}

// TopologyConfig describes the network shape.
type TopologyConfig struct {
	Type             string `yaml:"type"`
	Sides            []int  `yaml:"sides"`
	ServersPerRouter int    `yaml:"servers_per_router"`
}

// RouterConfig describes every router of the network.
type RouterConfig struct {
	VirtualChannels        int      `yaml:"virtual_channels"`
	VirtualChannelPolicies []string `yaml:"virtual_channel_policies"`
	Allocator              string   `yaml:"allocator"`
	BufferSize             int      `yaml:"buffer_size"`
	OutputBufferSize       int      `yaml:"output_buffer_size"`
	FlitSize               int      `yaml:"flit_size"`
	Bubble                 bool     `yaml:"bubble"`
	CrossbarDelay          int      `yaml:"crossbar_delay"`
	NeglectBusyOutput      bool     `yaml:"neglect_busy_output"`
}

// RoutingConfig selects the routing algorithm.
type RoutingConfig struct {
	Type  string `yaml:"type"`
	Order []int  `yaml:"order,omitempty"`
}

// LinkClassConfig describes one class of links. Class i covers the router
// links of dimension i; the last class covers server links.
type LinkClassConfig struct {
	Delay int `yaml:"delay"`
}

// TrafficConfig describes what servers send.
type TrafficConfig struct {
	Type              string        `yaml:"type"`
	Pattern           PatternConfig `yaml:"pattern"`
	MessagesPerServer int           `yaml:"messages_per_server"`
	MessageSize       int           `yaml:"message_size"`
	Load              float64       `yaml:"load"`
	Cycles            int           `yaml:"cycles"`
}

// PatternConfig selects the destination of every message.
type PatternConfig struct {
	Type       string `yaml:"type"`
	Sides      []int  `yaml:"sides,omitempty"`
	Shift      []int  `yaml:"shift,omitempty"`
	Complement []bool `yaml:"complement,omitempty"`
}

// Default returns a small Hamming network with burst uniform traffic.
func Default() *Config {
	return &Config{
		RandomSeed:        1,
		Warmup:            0,
		Measured:          10000,
		MaximumPacketSize: 1,
		Parallelism:       1,
		Topology: TopologyConfig{
			Type:             "hamming",
			Sides:            []int{2, 2},
			ServersPerRouter: 1,
		},
		Router: RouterConfig{
			VirtualChannels: 1,
			VirtualChannelPolicies: []string{
				"enforce_flow_control", "lowest_label",
			},
			Allocator:        "round_robin",
			BufferSize:       4,
			OutputBufferSize: 4,
			FlitSize:         1,
		},
		Routing: RoutingConfig{Type: "shortest"},
		Traffic: TrafficConfig{
			Type:              "burst",
			Pattern:           PatternConfig{Type: "uniform"},
			MessagesPerServer: 1,
			MessageSize:       1,
		},
	}
}

// Parse reads a YAML document on top of the defaults and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil {
		return nil, essentials.AddCtx("parse config", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads and validates a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load config", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, essentials.AddCtx(path, err)
	}

	return c, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the numeric ranges. Names are resolved later by the
// builders, which report unknown ones.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value int
		min   int
	}{
		{"warmup", c.Warmup, 0},
		{"measured", c.Measured, 0},
		{"maximum_packet_size", c.MaximumPacketSize, 1},
		{"parallelism", c.Parallelism, 0},
		{"topology.servers_per_router", c.Topology.ServersPerRouter, 1},
		{"router.virtual_channels", c.Router.VirtualChannels, 1},
		{"router.buffer_size", c.Router.BufferSize, 1},
		{"router.output_buffer_size", c.Router.OutputBufferSize, 1},
		{"router.flit_size", c.Router.FlitSize, 1},
		{"router.crossbar_delay", c.Router.CrossbarDelay, 0},
		{"traffic.messages_per_server", c.Traffic.MessagesPerServer, 0},
		{"traffic.message_size", c.Traffic.MessageSize, 1},
		{"traffic.cycles", c.Traffic.Cycles, 0},
	}

	for _, check := range checks {
		if check.value < check.min {
			return sim.NewConfigurationError(check.field,
				"must be at least %d, got %d", check.min, check.value)
		}
	}

	if len(c.Topology.Sides) == 0 {
		return sim.NewConfigurationError("topology.sides",
			"at least one dimension is required")
	}

	for i, side := range c.Topology.Sides {
		if side < 1 {
			return sim.NewConfigurationError(
				fmt.Sprintf("topology.sides[%d]", i),
				"must be positive, got %d", side)
		}
	}

	for i, class := range c.LinkClasses {
		if class.Delay < 0 {
			return sim.NewConfigurationError(
				fmt.Sprintf("link_classes[%d].delay", i),
				"must not be negative, got %d", class.Delay)
		}
	}

	return nil
}

// LinkDelays returns the delay of every link class, numClasses long. Classes
// missing from the configuration get a delay of one cycle.
func (c *Config) LinkDelays(numClasses int) []int {
	delays := make([]int, numClasses)
	for i := range delays {
		delays[i] = 1
		if i < len(c.LinkClasses) {
			delays[i] = c.LinkClasses[i].Delay
		}
	}

	return delays
}

// TotalCycles returns warmup plus measured cycles.
func (c *Config) TotalCycles() sim.Cycle {
	return sim.Cycle(c.Warmup + c.Measured)
}
