// Package vcpolicy narrows the candidate egresses of a head flit down to the
// one the router will try to allocate.
package vcpolicy

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	"golang.org/x/exp/slices"
)

// A Request describes the head flit that asks for an output VC.
type Request struct {
	Router int
	InPort int
	InVC   int
	Packet *messaging.Packet

	// RouterPorts is the number of router-to-router ports. Higher ports lead
	// to servers.
	RouterPorts int

	// Space returns the free downstream space of an output VC, in flits.
	Space func(port, vc int) int
}

// A Policy filters candidates. An empty result means the request stalls this
// cycle.
type Policy interface {
	Filter(
		candidates []routing.Candidate,
		req Request,
		rng *rand.Rand,
	) []routing.Candidate
}

// Names of the policies the builder understands.
const (
	NameLowestLabel        = "lowest_label"
	NameEnforceFlowControl = "enforce_flow_control"
	NameRandom             = "random"
	NameIdentity           = "identity"
	NameMostCredits        = "most_credits"
	NameHops               = "hops"
)

// A Chain applies policies in order.
type Chain []Policy

// Select runs the chain and returns the chosen candidate. It returns false
// when some policy leaves nothing. When several candidates survive, the first
// one in candidate order wins.
func (c Chain) Select(
	candidates []routing.Candidate,
	req Request,
	rng *rand.Rand,
) (routing.Candidate, bool) {
	survivors := candidates
	for _, p := range c {
		if len(survivors) == 0 {
			break
		}

		survivors = p.Filter(survivors, req, rng)
	}

	if len(survivors) == 0 {
		return routing.Candidate{}, false
	}

	return survivors[0], true
}

// Build creates the chain from policy names.
func Build(names []string) (Chain, error) {
	chain := make(Chain, 0, len(names))

	for _, name := range names {
		p, err := byName(name)
		if err != nil {
			return nil, err
		}

		chain = append(chain, p)
	}

	return chain, nil
}

func byName(name string) (Policy, error) {
	switch name {
	case NameLowestLabel:
		return LowestLabel{}, nil
	case NameEnforceFlowControl:
		return EnforceFlowControl{}, nil
	case NameRandom:
		return Random{}, nil
	case NameIdentity:
		return Identity{}, nil
	case NameMostCredits:
		return MostCredits{}, nil
	case NameHops:
		return Hops{}, nil
	default:
		return nil, sim.NewConfigurationError(
			"router.virtual_channel_policies", "unknown policy %q", name)
	}
}

func keep(
	candidates []routing.Candidate,
	pred func(routing.Candidate) bool,
) []routing.Candidate {
	return slices.DeleteFunc(slices.Clone(candidates),
		func(c routing.Candidate) bool { return !pred(c) })
}
