package router

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

const noOutput = -1

// An inputVC queues the flits that arrived on one virtual channel of a port.
// Once its head packet is allocated, outPort and outVC name the output VC
// that the packet follows until its tail leaves.
type inputVC struct {
	buf     sim.Buffer
	outPort int
	outVC   int
}

func (vc *inputVC) committed() bool {
	return vc.outPort != noOutput
}

func (vc *inputVC) head() *messaging.Flit {
	item := vc.buf.Peek()
	if item == nil {
		return nil
	}

	return item.(*messaging.Flit)
}

// An outputVC holds flits that crossed the crossbar and wait for a credit.
type outputVC struct {
	buf        sim.Buffer
	credits    int
	capacity   int
	owner      int
	inCrossbar int
}

// downstreamSpace is the number of flits that can still be sent to the
// downstream input VC once everything already committed has left.
func (vc *outputVC) downstreamSpace() int {
	return vc.credits - vc.buf.Size() - vc.inCrossbar
}

func (vc *outputVC) hasSlot() bool {
	return vc.buf.Size()+vc.inCrossbar < vc.buf.Capacity()
}

func (vc *outputVC) free() bool {
	return vc.owner == noOutput
}

// A port bundles the input and output halves of one topology port with the
// link that leaves it.
type port struct {
	index   int
	inputs  []*inputVC
	outputs []*outputVC

	remote     sim.Handler
	remotePort int
	toRouter   bool
	class      link.Class

	// token is the VC preferred by the link arbiter. It moves past a VC once
	// that VC sends a tail flit.
	token int
}

func (p *port) connected() bool {
	return p.remote != nil
}

func newPort(routerName string, index, numVC, bufferSize, outputBufferSize int) *port {
	p := &port{index: index}

	for vc := 0; vc < numVC; vc++ {
		p.inputs = append(p.inputs, &inputVC{
			buf: sim.NewBuffer(
				fmt.Sprintf("%s.Port%d.InVC%d", routerName, index, vc),
				bufferSize),
			outPort: noOutput,
			outVC:   noOutput,
		})
		p.outputs = append(p.outputs, &outputVC{
			buf: sim.NewBuffer(
				fmt.Sprintf("%s.Port%d.OutVC%d", routerName, index, vc),
				outputBufferSize),
			owner: noOutput,
		})
	}

	return p
}

// crossbarItem is a flit travelling through the crossbar towards an output
// VC.
type crossbarItem struct {
	flit    *messaging.Flit
	outPort int
	outVC   int
}

func (i crossbarItem) TaskID() string {
	return i.flit.ID
}

// crossbarSink sits after the crossbar pipeline and drops each flit into the
// output VC it was switched to. Switch allocation has already reserved the
// slot, so the sink always accepts.
type crossbarSink struct {
	sim.HookableBase
	router *Router
}

func (s *crossbarSink) Name() string {
	return s.router.name + ".CrossbarSink"
}

func (s *crossbarSink) CanPush() bool {
	return true
}

func (s *crossbarSink) Push(e interface{}) {
	item := e.(crossbarItem)
	out := s.router.ports[item.outPort].outputs[item.outVC]

	out.inCrossbar--
	out.buf.Push(item.flit)
}

func (s *crossbarSink) Pop() interface{} {
	return nil
}

func (s *crossbarSink) Peek() interface{} {
	return nil
}

func (s *crossbarSink) Capacity() int {
	return 0
}

func (s *crossbarSink) Size() int {
	return 0
}

func (s *crossbarSink) Clear() {}

func (s *crossbarSink) Elements() []interface{} {
	return nil
}
