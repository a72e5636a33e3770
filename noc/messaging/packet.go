package messaging

import (
	"fmt"

	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A Message is what a server asks the network to deliver. It is split into
// packets of bounded size.
type Message struct {
	ID            string
	Source        int
	Destination   int
	Size          int
	CreationCycle sim.Cycle

	remainingPackets int
}

// A Packet is an ordered sequence of flits that share a route. It exists from
// generation until its last flit is ejected.
type Packet struct {
	ID             string
	Message        *Message
	Size           int
	Source         int
	Destination    int
	CreationCycle  sim.Cycle
	InjectionCycle sim.Cycle
	Hops           int

	nextSeqID int
}

// PacketRecord is what the network reports for every completed packet.
type PacketRecord struct {
	ID              string
	Source          int
	Destination     int
	Size            int
	CreationCycle   uint64
	InjectionCycle  uint64
	CompletionCycle uint64
	Hops            int
}

// Latency returns the number of cycles from creation to completion.
func (r PacketRecord) Latency() uint64 {
	return r.CompletionCycle - r.CreationCycle
}

// NetworkLatency returns the number of cycles from injection to completion.
func (r PacketRecord) NetworkLatency() uint64 {
	return r.CompletionCycle - r.InjectionCycle
}

// SplitMessage divides a message into packets of at most maxPacketSize flits.
func SplitMessage(
	msg *Message,
	maxPacketSize int,
	idGen sim.IDGenerator,
) []*Packet {
	if maxPacketSize < 1 {
		panic("maximum packet size must be positive")
	}

	var packets []*Packet

	for left := msg.Size; left > 0; left -= maxPacketSize {
		size := min(left, maxPacketSize)
		packets = append(packets, &Packet{
			ID:            "pkt-" + idGen.Generate(),
			Message:       msg,
			Size:          size,
			Source:        msg.Source,
			Destination:   msg.Destination,
			CreationCycle: msg.CreationCycle,
		})
	}

	msg.remainingPackets = len(packets)

	return packets
}

// Flits creates all the flits of the packet, head first.
func (p *Packet) Flits() []*Flit {
	flits := make([]*Flit, p.Size)
	for i := range flits {
		flits[i] = FlitBuilder{}.WithPacket(p).WithSeqID(i).Build()
	}

	return flits
}

// Deliver accounts for a flit reaching the destination server. It returns
// whether the packet is complete. Flits must arrive in sequence order; an
// out-of-order flit returns an error.
func (p *Packet) Deliver(f *Flit) (complete bool, err error) {
	if f.Packet != p {
		return false, fmt.Errorf("flit %s does not belong to packet %s",
			f, p.ID)
	}

	if f.SeqID != p.nextSeqID {
		return false, fmt.Errorf("packet %s expected flit %d, got %d",
			p.ID, p.nextSeqID, f.SeqID)
	}

	p.nextSeqID++

	return p.nextSeqID == p.Size, nil
}

// Record summarizes a completed packet.
func (p *Packet) Record(completion sim.Cycle) PacketRecord {
	return PacketRecord{
		ID:              p.ID,
		Source:          p.Source,
		Destination:     p.Destination,
		Size:            p.Size,
		CreationCycle:   uint64(p.CreationCycle),
		InjectionCycle:  uint64(p.InjectionCycle),
		CompletionCycle: uint64(completion),
		Hops:            p.Hops,
	}
}

// PacketDone reports a completed packet to its message and returns whether
// the whole message is complete.
func (m *Message) PacketDone() bool {
	m.remainingPackets--
	if m.remainingPackets < 0 {
		panic(fmt.Sprintf("message %s completed more packets than it has",
			m.ID))
	}

	return m.remainingPackets == 0
}
