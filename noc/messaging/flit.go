// Package messaging defines the units that travel through the network:
// messages, packets and flits.
package messaging

import (
	"fmt"
)

// Flit is the smallest transferring unit on a network. A flit is immutable
// once built; the virtual channel it occupies is given by the buffer that
// holds it.
type Flit struct {
	ID     string
	SeqID  int
	Packet *Packet
}

// IsHead returns true if the flit opens its packet.
func (f *Flit) IsHead() bool {
	return f.SeqID == 0
}

// IsTail returns true if the flit closes its packet.
func (f *Flit) IsTail() bool {
	return f.SeqID == f.Packet.Size-1
}

// TaskID identifies the flit when it crosses a pipeline.
func (f *Flit) TaskID() string {
	return f.ID
}

func (f *Flit) String() string {
	return fmt.Sprintf("%s[%d/%d]", f.Packet.ID, f.SeqID, f.Packet.Size)
}

// FlitBuilder can build flits
type FlitBuilder struct {
	packet *Packet
	seqID  int
}

// WithPacket sets the packet that the flit belongs to.
func (b FlitBuilder) WithPacket(p *Packet) FlitBuilder {
	b.packet = p
	return b
}

// WithSeqID sets the SeqID of the Flit.
func (b FlitBuilder) WithSeqID(i int) FlitBuilder {
	b.seqID = i
	return b
}

// Build creates a new flit.
func (b FlitBuilder) Build() *Flit {
	if b.packet == nil {
		panic("flit must belong to a packet")
	}

	if b.seqID < 0 || b.seqID >= b.packet.Size {
		panic(fmt.Sprintf("flit seq id %d out of packet of size %d",
			b.seqID, b.packet.Size))
	}

	return &Flit{
		ID:     fmt.Sprintf("%s-flit-%d", b.packet.ID, b.seqID),
		SeqID:  b.seqID,
		Packet: b.packet,
	}
}
