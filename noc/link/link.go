// Package link models the wires between routers and servers: their delay,
// the events they carry and the space rule of bubble flow control.
package link

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Class groups links with the same properties.
type Class struct {
	Delay int
}

// MakeClasses validates link class delays.
func MakeClasses(delays []int) ([]Class, error) {
	classes := make([]Class, len(delays))

	for i, d := range delays {
		if d < 0 {
			return nil, sim.NewConfigurationError(
				fmt.Sprintf("link_classes[%d].delay", i),
				"must not be negative, got %d", d)
		}

		classes[i] = Class{Delay: d}
	}

	return classes, nil
}

// Transmit returns the cycle at which something sent at now over a link of
// the class arrives. A delay of zero is treated as one, since the receiver
// cannot observe a flit within the cycle it was sent.
func Transmit(now sim.Cycle, c Class) sim.Cycle {
	return now + sim.Cycle(c.EffectiveDelay())
}

// EffectiveDelay returns the delay in cycles, at least one.
func (c Class) EffectiveDelay() int {
	return max(c.Delay, 1)
}

// FlitArrivalEvent delivers a flit into an input virtual channel of a router
// or into a server.
type FlitArrivalEvent struct {
	*sim.EventBase
	Flit *messaging.Flit
	Port int
	VC   int
}

// NewFlitArrivalEvent creates a FlitArrivalEvent.
func NewFlitArrivalEvent(
	t sim.Cycle,
	handler sim.Handler,
	flit *messaging.Flit,
	port, vc int,
) *FlitArrivalEvent {
	return &FlitArrivalEvent{
		EventBase: sim.NewEventBase(t, handler),
		Flit:      flit,
		Port:      port,
		VC:        vc,
	}
}

// CreditEvent returns buffer slots to the sender that owns an output VC.
type CreditEvent struct {
	*sim.EventBase
	Port  int
	VC    int
	Count int
}

// NewCreditEvent creates a CreditEvent carrying count credits.
func NewCreditEvent(
	t sim.Cycle,
	handler sim.Handler,
	port, vc, count int,
) *CreditEvent {
	return &CreditEvent{
		EventBase: sim.NewEventBase(t, handler),
		Port:      port,
		VC:        vc,
		Count:     count,
	}
}

// RequiredSpace returns the free downstream space, in flits, that a flit needs
// before it may be allocated. With the bubble rule in force a head flit must
// leave room for a whole maximum-size packet after its own.
func RequiredSpace(f *messaging.Flit, bubble bool, maxPacketSize int) int {
	if bubble && f.IsHead() {
		return f.Packet.Size + maxPacketSize
	}

	return 1
}

// ValidateBubble checks the buffer sizes that bubble flow control needs.
func ValidateBubble(bufferSize, outputBufferSize, maxPacketSize int) error {
	if bufferSize < 2*maxPacketSize {
		return sim.NewConfigurationError("router.buffer_size",
			"bubble needs at least %d slots, got %d",
			2*maxPacketSize, bufferSize)
	}

	if outputBufferSize < maxPacketSize {
		return sim.NewConfigurationError("router.output_buffer_size",
			"bubble needs at least %d slots, got %d",
			maxPacketSize, outputBufferSize)
	}

	return nil
}
