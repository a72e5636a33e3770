package tracing

import (
	"sort"
	"sync"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	"gonum.org/v1/gonum/stat"
)

// PacketSummary aggregates the packets seen by a PacketTracer.
type PacketSummary struct {
	Packets           uint64
	Flits             uint64
	AverageLatency    float64
	LatencyStdDev     float64
	MedianLatency     float64
	P99Latency        float64
	MaxLatency        uint64
	AverageNetLatency float64
	AverageHops       float64
	AcceptedLoad      float64
}

// PacketTracer keeps statistics of the packets created inside a measurement
// window. Packets created before the window opens are ignored.
type PacketTracer struct {
	lock        sync.Mutex
	windowStart sim.Cycle
	windowEnd   sim.Cycle

	latencies  []float64
	netLatency float64
	hops       float64
	flits      uint64
	maxLatency uint64
}

// NewPacketTracer creates a tracer that measures packets created in
// [windowStart, windowEnd). A zero windowEnd leaves the window open.
func NewPacketTracer(windowStart, windowEnd sim.Cycle) *PacketTracer {
	return &PacketTracer{
		windowStart: windowStart,
		windowEnd:   windowEnd,
	}
}

func (t *PacketTracer) inWindow(r messaging.PacketRecord) bool {
	created := sim.Cycle(r.CreationCycle)
	if created < t.windowStart {
		return false
	}

	return t.windowEnd == 0 || created < t.windowEnd
}

// RecordPacket adds a packet to the statistics.
func (t *PacketTracer) RecordPacket(r messaging.PacketRecord) {
	if !t.inWindow(r) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	latency := r.Latency()
	t.latencies = append(t.latencies, float64(latency))
	t.netLatency += float64(r.NetworkLatency())
	t.hops += float64(r.Hops)
	t.flits += uint64(r.Size)
	t.maxLatency = max(t.maxLatency, latency)
}

// Terminate does nothing.
func (t *PacketTracer) Terminate() {
	// Nothing is buffered.
}

// NumPackets returns the number of packets measured so far.
func (t *PacketTracer) NumPackets() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return uint64(len(t.latencies))
}

// Summary computes the statistics. AcceptedLoad is in flits per server per
// cycle and is left at zero when numServers or cycles is zero.
func (t *PacketTracer) Summary(numServers int, cycles sim.Cycle) PacketSummary {
	t.lock.Lock()
	defer t.lock.Unlock()

	s := PacketSummary{
		Packets:    uint64(len(t.latencies)),
		Flits:      t.flits,
		MaxLatency: t.maxLatency,
	}

	if s.Packets == 0 {
		return s
	}

	sorted := append([]float64(nil), t.latencies...)
	sort.Float64s(sorted)

	n := float64(s.Packets)
	s.AverageLatency = stat.Mean(sorted, nil)
	if s.Packets > 1 {
		s.LatencyStdDev = stat.StdDev(sorted, nil)
	}

	s.MedianLatency = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P99Latency = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	s.AverageNetLatency = t.netLatency / n
	s.AverageHops = t.hops / n

	if numServers > 0 && cycles > 0 {
		s.AcceptedLoad = float64(t.flits) /
			float64(numServers) / float64(cycles)
	}

	return s
}
