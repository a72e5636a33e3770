package router

import (
	"github.com/nakacristo/caminos-lib-sub002/noc/arbitration"
	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/noc/vcpolicy"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// allocateVCs visits the input VCs round-robin, starting from vaPointer. A
// head flit without an output computes its route, has its candidates checked
// against the live state and runs the policy chain. The first requester of a
// free output VC takes it.
func (r *Router) allocateVCs() (madeProgress bool) {
	numInputs := len(r.ports) * r.numVC

	for i := 0; i < numInputs; i++ {
		index := (r.vaPointer + i) % numInputs
		inPort, inVC := index/r.numVC, index%r.numVC
		in := r.ports[inPort].inputs[inVC]

		flit := in.head()
		if flit == nil || in.committed() {
			continue
		}

		if !flit.IsHead() {
			sim.PanicInvariant(r.name, "body flit without an output VC",
				"port=%d vc=%d flit=%s state=%s",
				inPort, inVC, flit, r.State())
		}

		madeProgress = r.allocateVC(inPort, inVC, flit) || madeProgress
	}

	return madeProgress
}

func (r *Router) allocateVC(inPort, inVC int, flit *messaging.Flit) bool {
	candidates, err := r.routing.Candidates(r.index, inPort, inVC, flit.Packet)
	if err != nil {
		sim.PanicInvariant(r.name, "routing failed", "%v state=%s",
			err, r.State())
	}

	candidates = r.annotate(inPort, flit, candidates)

	req := vcpolicy.Request{
		Router:      r.index,
		InPort:      inPort,
		InVC:        inVC,
		Packet:      flit.Packet,
		RouterPorts: r.topology.MaximumDegree(),
		Space: func(port, vc int) int {
			return r.ports[port].outputs[vc].downstreamSpace()
		},
	}

	chosen, ok := r.policies.Select(candidates, req, r.rng)
	if !ok || !r.grantable(inPort, flit, chosen) {
		return false
	}

	in := r.ports[inPort].inputs[inVC]
	in.outPort = chosen.Port
	in.outVC = chosen.VC
	r.ports[chosen.Port].outputs[chosen.VC].owner = inPort*r.numVC + inVC

	r.invoke(HookPosVCAllocate, flit, chosen)

	return true
}

// annotate fills RouterAllows from the current state of the output VCs.
func (r *Router) annotate(
	inPort int,
	flit *messaging.Flit,
	candidates []routing.Candidate,
) []routing.Candidate {
	annotated := make([]routing.Candidate, 0, len(candidates))

	for _, c := range candidates {
		out := r.ports[c.Port].outputs[c.VC]
		if r.neglectBusy && !out.free() {
			continue
		}

		c.RouterAllows = r.grantable(inPort, flit, c)
		annotated = append(annotated, c)
	}

	return annotated
}

func (r *Router) grantable(
	inPort int,
	flit *messaging.Flit,
	c routing.Candidate,
) bool {
	p := r.ports[c.Port]
	if !p.connected() {
		return false
	}

	out := p.outputs[c.VC]
	need := link.RequiredSpace(flit, r.bubbleApplies(inPort, c), r.maxPacketSize)

	return out.free() && out.downstreamSpace() >= need && out.hasSlot()
}

// bubbleApplies tells whether a head flit taking the candidate enters a cyclic
// set of channels through a direction change.
func (r *Router) bubbleApplies(inPort int, c routing.Candidate) bool {
	if !r.bubble || r.dependencies == nil {
		return false
	}

	return r.dependencies.Cyclic(r.index, c.Port, c.VC) &&
		r.topology.IsDirectionChange(r.index, inPort, c.Port)
}

// allocateSwitch matches input ports to output ports and moves the granted
// flits into the crossbar.
func (r *Router) allocateSwitch() (madeProgress bool) {
	var requests []arbitration.Request

	for _, p := range r.ports {
		for vc, in := range p.inputs {
			if !in.committed() || in.head() == nil {
				continue
			}

			if !r.ports[in.outPort].outputs[in.outVC].hasSlot() {
				continue
			}

			requests = append(requests, arbitration.Request{
				Input:  p.index,
				Output: in.outPort,
				Tag:    vc,
			})
		}
	}

	if len(requests) == 0 {
		return false
	}

	for _, grant := range r.allocator.Allocate(requests) {
		r.traverse(grant.Input, grant.Tag)
		madeProgress = true
	}

	return madeProgress
}

func (r *Router) traverse(inPort, inVC int) {
	p := r.ports[inPort]
	in := p.inputs[inVC]
	out := r.ports[in.outPort].outputs[in.outVC]

	if !r.crossbar.CanAccept() {
		sim.PanicInvariant(r.name, "crossbar full", "port=%d vc=%d state=%s",
			inPort, inVC, r.State())
	}

	flit := in.buf.Pop().(*messaging.Flit)
	out.inCrossbar++
	r.crossbar.Accept(crossbarItem{
		flit:    flit,
		outPort: in.outPort,
		outVC:   in.outVC,
	})

	r.emit(link.NewCreditEvent(
		link.Transmit(r.now, p.class), p.remote, p.remotePort, inVC, 1))

	r.numFlitsForwarded++
	r.invoke(HookPosFlitForward, flit, inPort)

	if flit.IsTail() {
		out.owner = noOutput
		in.outPort = noOutput
		in.outVC = noOutput
	}
}
