// Package simulation builds a network from a configuration and advances it
// cycle by cycle.
package simulation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nakacristo/caminos-lib-sub002/config"
	"github.com/nakacristo/caminos-lib-sub002/noc/link"
	"github.com/nakacristo/caminos-lib-sub002/noc/router"
	"github.com/nakacristo/caminos-lib-sub002/noc/routing"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
	"github.com/nakacristo/caminos-lib-sub002/noc/traffic"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	log "github.com/sirupsen/logrus"
)

// StopReason tells why Run returned.
type StopReason string

// The reasons a run stops.
const (
	StopCycleLimit StopReason = "cycle_limit"
	StopDrained    StopReason = "drained"
	StopCancelled  StopReason = "cancelled"
	StopViolation  StopReason = "invariant_violation"
	StopDeadlock   StopReason = "deadlock"
)

// deadlockStallCycles is how many consecutive cycles without any movement,
// with flits still in the network and no pending events, stop a run as
// deadlocked. It must exceed the round-robin period of the allocators.
const deadlockStallCycles = 1000

// Result holds the counters of a run.
type Result struct {
	RunID  string
	Cycles sim.Cycle
	Reason StopReason

	GeneratedMessages uint64
	SelfMessages      uint64
	InjectedFlits     uint64
	EjectedFlits      uint64
	CompletedPackets  uint64
	CompletedMessages uint64

	// DeliveredPhits is EjectedFlits times the flit size.
	DeliveredPhits uint64

	// ForwardedFlits counts the flits each router moved through its
	// crossbar, indexed by router.
	ForwardedFlits []uint64
}

// A Simulation owns the routers, servers and pending events of a network.
type Simulation struct {
	id           string
	cfg          *config.Config
	topology     topology.Topology
	classes      []link.Class
	dependencies *routing.DependencyGraph
	routers      []*router.Router
	servers      []*traffic.Server
	traffic      traffic.Traffic
	queue        *sim.EventQueueImpl
	parallelism  int
	flitSize     int

	now       atomic.Uint64
	pauseLock sync.Mutex
	stateLock sync.RWMutex
}

// ID returns the unique id of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the network was built from.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Topology returns the network topology.
func (s *Simulation) Topology() topology.Topology {
	return s.topology
}

// DependencyGraph returns the channel dependency graph of the routing.
func (s *Simulation) DependencyGraph() *routing.DependencyGraph {
	return s.dependencies
}

// Routers returns the routers, indexed as in the topology.
func (s *Simulation) Routers() []*router.Router {
	return s.routers
}

// Servers returns the servers, indexed as in the topology.
func (s *Simulation) Servers() []*traffic.Server {
	return s.servers
}

// Now returns the current cycle. It may be called while Run is running.
func (s *Simulation) Now() sim.Cycle {
	return sim.Cycle(s.now.Load())
}

// AcceptHook registers a hook on every server. Servers publish a
// messaging.PacketRecord at traffic.HookPosPacketCompleted.
func (s *Simulation) AcceptHook(hook sim.Hook) {
	for _, srv := range s.servers {
		srv.AcceptHook(hook)
	}
}

// AcceptRouterHook registers a hook on every router. With parallelism above
// one, the hook is called from several goroutines.
func (s *Simulation) AcceptRouterHook(hook sim.Hook) {
	for _, r := range s.routers {
		r.AcceptHook(hook)
	}
}

// Pause stops the run between two cycles until Continue is called.
func (s *Simulation) Pause() {
	s.pauseLock.Lock()
}

// Continue resumes a paused run.
func (s *Simulation) Continue() {
	s.pauseLock.Unlock()
}

// InspectState calls f while no cycle is being computed.
func (s *Simulation) InspectState(f func()) {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	f()
}

// PipelineDepth returns the zero-load latency, in cycles, of a single-flit
// packet that crosses the given number of router-to-router links.
func (s *Simulation) PipelineDepth(hops int) sim.Cycle {
	serverClass := s.classes[len(s.classes)-1]
	routerStage := s.cfg.Router.CrossbarDelay + 1

	maxLinkDelay := 0
	for _, c := range s.classes[:len(s.classes)-1] {
		maxLinkDelay = max(maxLinkDelay, c.EffectiveDelay())
	}

	depth := 2*serverClass.EffectiveDelay() +
		(hops+1)*routerStage +
		hops*maxLinkDelay

	return sim.Cycle(depth)
}

// Run advances the network until the cycle limit, until the traffic is
// finished and the network drained, or until ctx is done. A cycle limit of
// zero means no limit. An invariant violation stops the run and is returned
// as a *sim.InvariantViolation. A network that holds flits but can no longer
// move any of them stops with StopDeadlock.
func (s *Simulation) Run(ctx context.Context) (res Result, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		violation, ok := r.(*sim.InvariantViolation)
		if !ok {
			panic(r)
		}

		violation.Cycle = s.Now()
		res = s.result(StopViolation)
		err = violation

		log.WithField("run", s.id).Error(violation)
	}()

	limit := s.cfg.TotalCycles()
	stalled := 0

	for {
		now := s.Now()

		if ctx.Err() != nil {
			return s.result(StopCancelled), ctx.Err()
		}

		if limit > 0 && now >= limit {
			return s.result(StopCycleLimit), nil
		}

		if s.traffic.Finished(now) && s.drained() {
			return s.result(StopDrained), nil
		}

		progress, err := s.step(now)
		if err != nil {
			return s.result(StopViolation), err
		}

		if progress || s.queue.Len() > 0 || s.drained() {
			stalled = 0
			continue
		}

		stalled++
		if stalled >= deadlockStallCycles {
			s.logDeadlock(stalled)
			return s.result(StopDeadlock), nil
		}
	}
}

// step runs one cycle. It reports whether anything moved: an event was
// handled, a router made progress or a server injected a flit. Message
// generation alone does not count.
func (s *Simulation) step(now sim.Cycle) (progress bool, err error) {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	for _, e := range s.queue.PopDue(now) {
		if e.Time() < now {
			sim.PanicInvariant("simulation", "event missed its cycle",
				"event=%T time=%d now=%d", e, e.Time(), now)
		}

		if err := e.Handler().Handle(e); err != nil {
			return false, err
		}

		progress = true
	}

	progress = s.tickRouters(now) || progress

	for _, r := range s.routers {
		s.schedule(r.TakeEvents())
	}

	for _, srv := range s.servers {
		injected := srv.Stats().InjectedFlits
		srv.Tick(now)
		progress = srv.Stats().InjectedFlits != injected || progress

		s.schedule(srv.TakeEvents())
	}

	s.now.Store(uint64(now) + 1)

	return progress, nil
}

func (s *Simulation) schedule(events []sim.Event) {
	for _, e := range events {
		s.queue.Push(e)
	}
}

// tickRouters lets every router compute the cycle. With more than one
// worker, routers are split in contiguous ranges and the call returns once
// all of them are done. It reports whether any router made progress.
func (s *Simulation) tickRouters(now sim.Cycle) (madeProgress bool) {
	if s.parallelism <= 1 || len(s.routers) < 2 {
		for _, r := range s.routers {
			madeProgress = r.Tick(now) || madeProgress
		}

		return madeProgress
	}

	numWorkers := min(s.parallelism, len(s.routers))
	chunk := (len(s.routers) + numWorkers - 1) / numWorkers
	panics := make([]interface{}, numWorkers)
	progress := make([]bool, numWorkers)

	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(s.routers))

		if lo >= hi {
			break
		}

		wg.Add(1)

		go func(w int, routers []*router.Router) {
			defer wg.Done()
			defer func() { panics[w] = recover() }()

			for _, r := range routers {
				progress[w] = r.Tick(now) || progress[w]
			}
		}(w, s.routers[lo:hi])
	}

	wg.Wait()

	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}

	for _, p := range progress {
		madeProgress = madeProgress || p
	}

	return madeProgress
}

func (s *Simulation) logDeadlock(stalled int) {
	logger := log.WithFields(log.Fields{
		"run":     s.id,
		"cycle":   s.Now(),
		"stalled": stalled,
	})

	logger.Error("network deadlocked, no flit moved while flits are buffered")

	for _, r := range s.routers {
		if !r.Idle() {
			logger.Error(r.State())
		}
	}

	for i, srv := range s.servers {
		if n := srv.NumQueuedFlits(); n > 0 {
			logger.Errorf("Server[%d] queued=%d", i, n)
		}
	}
}

func (s *Simulation) drained() bool {
	if s.queue.Len() > 0 {
		return false
	}

	for _, srv := range s.servers {
		if srv.NumQueuedFlits() > 0 {
			return false
		}
	}

	for _, r := range s.routers {
		if !r.Idle() {
			return false
		}
	}

	return true
}

func (s *Simulation) result(reason StopReason) Result {
	res := Result{
		RunID:          s.id,
		Cycles:         s.Now(),
		Reason:         reason,
		ForwardedFlits: make([]uint64, len(s.routers)),
	}

	for i, r := range s.routers {
		res.ForwardedFlits[i] = r.NumFlitsForwarded()
	}

	for _, srv := range s.servers {
		st := srv.Stats()
		res.GeneratedMessages += st.GeneratedMessages
		res.SelfMessages += st.SelfMessages
		res.InjectedFlits += st.InjectedFlits
		res.EjectedFlits += st.EjectedFlits
		res.CompletedPackets += st.CompletedPackets
		res.CompletedMessages += st.CompletedMessages
	}

	res.DeliveredPhits = res.EjectedFlits * uint64(s.flitSize)

	return res
}

func (r Result) String() string {
	return fmt.Sprintf(
		"run %s stopped at cycle %d (%s): %d packets completed, "+
			"%d flits ejected", r.RunID, r.Cycles, r.Reason,
		r.CompletedPackets, r.EjectedFlits)
}
