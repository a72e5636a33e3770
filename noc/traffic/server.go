package traffic

import (
	"errors"
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// HookPosPacketCompleted marks the ejection of the last flit of a packet. The
// item is a messaging.PacketRecord.
var HookPosPacketCompleted = &sim.HookPos{Name: "Packet Completed"}

// HookPosMessageCompleted marks the completion of the last packet of a
// message. The item is the *messaging.Message.
var HookPosMessageCompleted = &sim.HookPos{Name: "Message Completed"}

// HookPosFlitInject marks a flit leaving a server.
var HookPosFlitInject = &sim.HookPos{Name: "Flit Inject"}

// HookPosFlitEject marks a flit reaching its destination server.
var HookPosFlitEject = &sim.HookPos{Name: "Flit Eject"}

const noVC = -1

// ServerStats counts what a server generated, injected and received.
type ServerStats struct {
	GeneratedMessages uint64
	SelfMessages      uint64
	InjectedFlits     uint64
	EjectedFlits      uint64
	CompletedPackets  uint64
	CompletedMessages uint64
}

// A Server is an end node. It queues the flits of the messages it creates,
// injects at most one flit per cycle into its router and consumes the flits
// addressed to it.
type Server struct {
	sim.HookableBase

	name          string
	index         int
	traffic       Traffic
	maxPacketSize int
	idGen         sim.IDGenerator

	router     sim.Handler
	routerPort int
	class      link.Class
	credits    []int
	capacity   int

	queue       []*messaging.Flit
	injectingVC int
	outbox      []sim.Event

	stats ServerStats
}

// NewServer creates a server that generates from the traffic.
func NewServer(
	name string,
	index int,
	traffic Traffic,
	maxPacketSize int,
	idGen sim.IDGenerator,
) *Server {
	return &Server{
		name:          name,
		index:         index,
		traffic:       traffic,
		maxPacketSize: maxPacketSize,
		idGen:         idGen,
		injectingVC:   noVC,
	}
}

// Name returns the name of the server.
func (s *Server) Name() string {
	return s.name
}

// Index returns the server index in the topology.
func (s *Server) Index() int {
	return s.index
}

// ConnectRouter attaches the server to a router input port that has numVC
// virtual channels of the given capacity.
func (s *Server) ConnectRouter(
	router sim.Handler,
	port, numVC, capacity int,
	class link.Class,
) {
	s.router = router
	s.routerPort = port
	s.class = class
	s.capacity = capacity

	s.credits = make([]int, numVC)
	for vc := range s.credits {
		s.credits[vc] = capacity
	}
}

// Stats returns the counters of the server.
func (s *Server) Stats() ServerStats {
	return s.stats
}

// NumQueuedFlits returns the number of flits waiting for injection.
func (s *Server) NumQueuedFlits() int {
	return len(s.queue)
}

// Handle consumes flits and credits.
func (s *Server) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *link.FlitArrivalEvent:
		s.consume(e)
	case *link.CreditEvent:
		s.credits[e.VC] += e.Count
		if s.credits[e.VC] > s.capacity {
			sim.PanicInvariant(s.name, "credits exceed router capacity",
				"vc=%d credits=%d capacity=%d",
				e.VC, s.credits[e.VC], s.capacity)
		}
	default:
		return fmt.Errorf("server %s cannot handle event of type %T",
			s.name, e)
	}

	return nil
}

func (s *Server) consume(e *link.FlitArrivalEvent) {
	now := e.Time()
	flit := e.Flit
	packet := flit.Packet

	if packet.Destination != s.index {
		sim.PanicInvariant(s.name, "flit ejected at the wrong server",
			"flit=%s destination=%d", flit, packet.Destination)
	}

	complete, err := packet.Deliver(flit)
	if err != nil {
		sim.PanicInvariant(s.name, "flit out of order", "%v", err)
	}

	s.stats.EjectedFlits++
	s.invoke(now, HookPosFlitEject, flit)

	s.outbox = append(s.outbox, link.NewCreditEvent(
		link.Transmit(now, s.class), s.router, s.routerPort, e.VC, 1))

	if !complete {
		return
	}

	s.stats.CompletedPackets++
	s.invoke(now, HookPosPacketCompleted, packet.Record(now))

	if packet.Message != nil && packet.Message.PacketDone() {
		s.stats.CompletedMessages++
		s.invoke(now, HookPosMessageCompleted, packet.Message)
	}
}

// Tick generates from the traffic and injects at most one flit.
func (s *Server) Tick(now sim.Cycle) (madeProgress bool) {
	madeProgress = s.generate(now) || madeProgress
	madeProgress = s.inject(now) || madeProgress

	return madeProgress
}

func (s *Server) generate(now sim.Cycle) bool {
	msg, err := s.traffic.Generate(s.index, now)
	if errors.Is(err, ErrSelfMessage) {
		s.stats.SelfMessages++
		return false
	}

	if err != nil {
		panic(err)
	}

	if msg == nil {
		return false
	}

	s.stats.GeneratedMessages++

	for _, p := range messaging.SplitMessage(msg, s.maxPacketSize, s.idGen) {
		s.queue = append(s.queue, p.Flits()...)
	}

	return true
}

func (s *Server) inject(now sim.Cycle) bool {
	if len(s.queue) == 0 {
		return false
	}

	flit := s.queue[0]

	if flit.IsHead() {
		s.injectingVC = s.lowestVCWithCredit()
		if s.injectingVC == noVC {
			return false
		}

		flit.Packet.InjectionCycle = now
	}

	vc := s.injectingVC
	if s.credits[vc] < 1 {
		return false
	}

	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.credits[vc]--

	s.outbox = append(s.outbox, link.NewFlitArrivalEvent(
		link.Transmit(now, s.class), s.router, flit, s.routerPort, vc))
	s.stats.InjectedFlits++
	s.invoke(now, HookPosFlitInject, flit)

	if flit.IsTail() {
		s.injectingVC = noVC
	}

	return true
}

func (s *Server) lowestVCWithCredit() int {
	for vc, c := range s.credits {
		if c > 0 {
			return vc
		}
	}

	return noVC
}

// TakeEvents returns the events produced since the last call.
func (s *Server) TakeEvents() []sim.Event {
	events := s.outbox
	s.outbox = nil

	return events
}

func (s *Server) invoke(now sim.Cycle, pos *sim.HookPos, item interface{}) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Now:    now,
		Pos:    pos,
		Item:   item,
	})
}
