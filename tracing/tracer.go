// Package tracing collects the packet records that servers publish when a
// packet completes.
package tracing

import (
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/traffic"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Tracer consumes completed packets.
type Tracer interface {
	// RecordPacket is called once for every completed packet.
	RecordPacket(record messaging.PacketRecord)

	// Terminate is called after the last cycle.
	Terminate()
}

// A Domain accepts hooks. Servers and whole simulations are domains.
type Domain interface {
	AcceptHook(hook sim.Hook)
}

// CollectTrace lets the tracer collect the packets completed at a domain.
func CollectTrace(domain Domain, tracer Tracer) {
	domain.AcceptHook(&traceHook{t: tracer})
}

// A traceHook forwards packet completions to a tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer when a packet completes.
func (h *traceHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != traffic.HookPosPacketCompleted {
		return
	}

	h.t.RecordPacket(ctx.Item.(messaging.PacketRecord))
}
