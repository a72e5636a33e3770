package vcpolicy

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
)

// LowestLabel keeps the allowed candidates that carry the minimum label.
type LowestLabel struct{}

// Filter implements Policy.
func (LowestLabel) Filter(
	candidates []routing.Candidate,
	_ Request,
	_ *rand.Rand,
) []routing.Candidate {
	allowed := keep(candidates, func(c routing.Candidate) bool {
		return c.RouterAllows
	})
	if len(allowed) == 0 {
		return nil
	}

	lowest := allowed[0].Label
	for _, c := range allowed[1:] {
		lowest = min(lowest, c.Label)
	}

	return keep(allowed, func(c routing.Candidate) bool {
		return c.Label == lowest
	})
}

// EnforceFlowControl removes the candidates the router does not allow.
type EnforceFlowControl struct{}

// Filter implements Policy.
func (EnforceFlowControl) Filter(
	candidates []routing.Candidate,
	_ Request,
	_ *rand.Rand,
) []routing.Candidate {
	return keep(candidates, func(c routing.Candidate) bool {
		return c.RouterAllows
	})
}

// Random keeps one candidate chosen uniformly.
type Random struct{}

// Filter implements Policy.
func (Random) Filter(
	candidates []routing.Candidate,
	_ Request,
	rng *rand.Rand,
) []routing.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	return []routing.Candidate{candidates[rng.Intn(len(candidates))]}
}

// Identity keeps everything.
type Identity struct{}

// Filter implements Policy.
func (Identity) Filter(
	candidates []routing.Candidate,
	_ Request,
	_ *rand.Rand,
) []routing.Candidate {
	return candidates
}

// MostCredits keeps the candidates whose output VC has the most free
// downstream space.
type MostCredits struct{}

// Filter implements Policy.
func (MostCredits) Filter(
	candidates []routing.Candidate,
	req Request,
	_ *rand.Rand,
) []routing.Candidate {
	if len(candidates) == 0 || req.Space == nil {
		return candidates
	}

	best := req.Space(candidates[0].Port, candidates[0].VC)
	for _, c := range candidates[1:] {
		best = max(best, req.Space(c.Port, c.VC))
	}

	return keep(candidates, func(c routing.Candidate) bool {
		return req.Space(c.Port, c.VC) == best
	})
}

// Hops keeps the VC whose index equals the hops the packet has already made.
// Ejection candidates always pass.
type Hops struct{}

// Filter implements Policy.
func (Hops) Filter(
	candidates []routing.Candidate,
	req Request,
	_ *rand.Rand,
) []routing.Candidate {
	hops := 0
	if req.Packet != nil {
		hops = req.Packet.Hops
	}

	return keep(candidates, func(c routing.Candidate) bool {
		return c.Port >= req.RouterPorts || c.VC == hops
	})
}
