// Package router implements an input-output buffered virtual-channel router.
//
// A router advances one cycle per Tick. Within a cycle it sends flits over
// its links, advances its crossbar, allocates output VCs to waiting head
// flits, allocates the switch and moves the granted flits into the crossbar.
// Everything that reaches another router or a server is emitted as an event
// and only observed by the receiver in a later cycle.
package router

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/nakacristo/caminos-lib-sub002/noc/arbitration"
	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"github.com/nakacristo/caminos-lib-sub002/noc/vcpolicy"
	"github.com/nakacristo/caminos-lib-sub002/pipelining"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// HookPosFlitArrive marks a flit entering an input VC.
var HookPosFlitArrive = &sim.HookPos{Name: "Flit Arrive"}

// HookPosFlitForward marks a flit leaving an input VC into the crossbar.
var HookPosFlitForward = &sim.HookPos{Name: "Flit Forward"}

// HookPosFlitSend marks a flit leaving an output VC onto a link.
var HookPosFlitSend = &sim.HookPos{Name: "Flit Send"}

// HookPosVCAllocate marks a head flit being granted an output VC. The detail
// is the chosen routing.Candidate.
var HookPosVCAllocate = &sim.HookPos{Name: "VC Allocate"}

// Router is a virtual-channel router.
type Router struct {
	sim.HookableBase

	name  string
	index int

	topology      topology.Topology
	routing       routing.Algorithm
	policies      vcpolicy.Chain
	allocator     arbitration.Allocator
	dependencies  *routing.DependencyGraph
	rng           *rand.Rand
	numVC         int
	maxPacketSize int
	bubble        bool
	neglectBusy   bool

	ports    []*port
	crossbar pipelining.Pipeline

	vaPointer int
	now       sim.Cycle
	outbox    []sim.Event

	numFlitsSent      uint64
	numFlitsForwarded uint64
}

// Name returns the name of the router.
func (r *Router) Name() string {
	return r.name
}

// Index returns the router index in the topology.
func (r *Router) Index() int {
	return r.index
}

// NumPorts returns the number of ports, server ports included.
func (r *Router) NumPorts() int {
	return len(r.ports)
}

// ConnectPort attaches the far end of a port. Flits sent on the port arrive
// at remote through remotePort. Credits for the output VCs start at
// remoteCapacity.
func (r *Router) ConnectPort(
	portIndex int,
	remote sim.Handler,
	remotePort int,
	remoteCapacity int,
	class link.Class,
) {
	p := r.ports[portIndex]
	p.remote = remote
	p.remotePort = remotePort
	p.class = class

	_, p.toRouter = remote.(*Router)

	for _, out := range p.outputs {
		out.credits = remoteCapacity
		out.capacity = remoteCapacity
	}
}

// NumVC returns the number of virtual channels per port.
func (r *Router) NumVC() int {
	return r.numVC
}

// InputCapacity returns the capacity of each input VC.
func (r *Router) InputCapacity() int {
	return r.ports[0].inputs[0].buf.Capacity()
}

// Handle delivers flit arrivals and credit returns.
func (r *Router) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *link.FlitArrivalEvent:
		r.handleFlitArrival(e)
	case *link.CreditEvent:
		r.handleCredit(e)
	default:
		return fmt.Errorf("router %s cannot handle event of type %T",
			r.name, e)
	}

	return nil
}

func (r *Router) handleFlitArrival(e *link.FlitArrivalEvent) {
	in := r.ports[e.Port].inputs[e.VC]
	if !in.buf.CanPush() {
		sim.PanicInvariant(r.name, "flit arrived at a full input VC",
			"port=%d vc=%d size=%d flit=%s state=%s",
			e.Port, e.VC, in.buf.Size(), e.Flit, r.State())
	}

	in.buf.Push(e.Flit)
	r.invoke(HookPosFlitArrive, e.Flit, e.Port)
}

func (r *Router) handleCredit(e *link.CreditEvent) {
	out := r.ports[e.Port].outputs[e.VC]

	out.credits += e.Count
	if out.credits > out.capacity {
		sim.PanicInvariant(r.name, "credits exceed downstream capacity",
			"port=%d vc=%d credits=%d capacity=%d state=%s",
			e.Port, e.VC, out.credits, out.capacity, r.State())
	}
}

// Tick advances the router by one cycle. Events for other handlers are kept
// until TakeEvents is called.
func (r *Router) Tick(now sim.Cycle) (madeProgress bool) {
	r.now = now

	madeProgress = r.sendOverLinks() || madeProgress
	madeProgress = r.crossbar.Tick() || madeProgress
	madeProgress = r.allocateVCs() || madeProgress
	madeProgress = r.allocateSwitch() || madeProgress

	r.vaPointer = (r.vaPointer + 1) % (len(r.ports) * r.numVC)

	return madeProgress
}

// TakeEvents returns the events produced since the last call.
func (r *Router) TakeEvents() []sim.Event {
	events := r.outbox
	r.outbox = nil

	return events
}

func (r *Router) emit(e sim.Event) {
	r.outbox = append(r.outbox, e)
}

// sendOverLinks moves at most one flit per port from an output VC onto the
// link. A VC may send only if it holds a credit.
func (r *Router) sendOverLinks() (madeProgress bool) {
	for _, p := range r.ports {
		if !p.connected() {
			continue
		}

		vc, found := r.linkWinner(p)
		if !found {
			continue
		}

		out := p.outputs[vc]
		flit := out.buf.Pop().(*messaging.Flit)
		out.credits--

		if p.toRouter && flit.IsHead() {
			flit.Packet.Hops++
		}

		if flit.IsTail() {
			p.token = (vc + 1) % r.numVC
		}

		r.emit(link.NewFlitArrivalEvent(
			link.Transmit(r.now, p.class), p.remote, flit, p.remotePort, vc))
		r.numFlitsSent++
		r.invoke(HookPosFlitSend, flit, p.index)

		madeProgress = true
	}

	return madeProgress
}

func (r *Router) linkWinner(p *port) (int, bool) {
	for i := 0; i < r.numVC; i++ {
		vc := (p.token + i) % r.numVC
		out := p.outputs[vc]

		if out.buf.Size() > 0 && out.credits > 0 {
			return vc, true
		}
	}

	return 0, false
}

// Idle returns true if the router holds no flit.
func (r *Router) Idle() bool {
	return r.NumBufferedFlits() == 0
}

// NumBufferedFlits counts the flits in input VCs, the crossbar and output
// VCs.
func (r *Router) NumBufferedFlits() int {
	n := r.crossbar.InFlight()

	for _, p := range r.ports {
		for vc := 0; vc < r.numVC; vc++ {
			n += p.inputs[vc].buf.Size() + p.outputs[vc].buf.Size()
		}
	}

	return n
}

// NumFlitsSent returns the number of flits sent over links, ejection
// included.
func (r *Router) NumFlitsSent() uint64 {
	return r.numFlitsSent
}

// NumFlitsForwarded returns the number of flits that crossed the switch.
func (r *Router) NumFlitsForwarded() uint64 {
	return r.numFlitsForwarded
}

// Buffers returns every input and output VC buffer.
func (r *Router) Buffers() []sim.Buffer {
	var bufs []sim.Buffer

	for _, p := range r.ports {
		for vc := 0; vc < r.numVC; vc++ {
			bufs = append(bufs, p.inputs[vc].buf, p.outputs[vc].buf)
		}
	}

	return bufs
}

// Credits returns the credits of an output VC.
func (r *Router) Credits(port, vc int) int {
	return r.ports[port].outputs[vc].credits
}

// State describes the occupancy of every VC.
func (r *Router) State() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s cycle=%d crossbar=%d", r.name, r.now,
		r.crossbar.InFlight())

	for _, p := range r.ports {
		for vc := 0; vc < r.numVC; vc++ {
			in, out := p.inputs[vc], p.outputs[vc]
			fmt.Fprintf(&sb, " p%d.v%d[in=%d out=%d cr=%d own=%d]",
				p.index, vc, in.buf.Size(), out.buf.Size(), out.credits,
				out.owner)
		}
	}

	return sb.String()
}

func (r *Router) invoke(pos *sim.HookPos, item interface{}, detail interface{}) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Now:    r.now,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
