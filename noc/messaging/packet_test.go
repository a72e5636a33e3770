package messaging

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Packet", func() {
	var (
		idGen sim.IDGenerator
		msg   *Message
	)

	BeforeEach(func() {
		idGen = sim.NewSequentialIDGenerator()
		msg = &Message{
			ID:            "msg-1",
			Source:        0,
			Destination:   3,
			Size:          40,
			CreationCycle: 5,
		}
	})

	It("should split messages into bounded packets", func() {
		packets := SplitMessage(msg, 16, idGen)

		Expect(packets).To(HaveLen(3))
		Expect(packets[0].Size).To(Equal(16))
		Expect(packets[1].Size).To(Equal(16))
		Expect(packets[2].Size).To(Equal(8))
		Expect(packets[2].Destination).To(Equal(3))
		Expect(packets[2].CreationCycle).To(Equal(sim.Cycle(5)))
		Expect(packets[0].ID).NotTo(Equal(packets[1].ID))
	})

	It("should mark head and tail flits", func() {
		packet := SplitMessage(msg, 16, idGen)[2]
		flits := packet.Flits()

		Expect(flits).To(HaveLen(8))
		Expect(flits[0].IsHead()).To(BeTrue())
		Expect(flits[0].IsTail()).To(BeFalse())
		Expect(flits[7].IsTail()).To(BeTrue())
		Expect(flits[3].Packet).To(BeIdenticalTo(packet))
	})

	It("should treat a single flit as head and tail", func() {
		msg.Size = 1
		flit := SplitMessage(msg, 16, idGen)[0].Flits()[0]

		Expect(flit.IsHead()).To(BeTrue())
		Expect(flit.IsTail()).To(BeTrue())
	})

	It("should complete packets delivered in order", func() {
		msg.Size = 3
		packet := SplitMessage(msg, 16, idGen)[0]
		flits := packet.Flits()

		done, err := packet.Deliver(flits[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeFalse())

		_, err = packet.Deliver(flits[2])
		Expect(err).To(HaveOccurred())

		_, err = packet.Deliver(flits[1])
		Expect(err).NotTo(HaveOccurred())
		done, err = packet.Deliver(flits[2])
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeTrue())

		packet.InjectionCycle = 7
		packet.Hops = 2
		record := packet.Record(20)
		Expect(record.Latency()).To(Equal(uint64(15)))
		Expect(record.NetworkLatency()).To(Equal(uint64(13)))
		Expect(record.Hops).To(Equal(2))
	})

	It("should complete messages after their last packet", func() {
		packets := SplitMessage(msg, 16, idGen)

		Expect(msg.PacketDone()).To(BeFalse())
		Expect(msg.PacketDone()).To(BeFalse())
		Expect(msg.PacketDone()).To(BeTrue())
		Expect(len(packets)).To(Equal(3))
	})

	It("should count flits and packets through hooks", func() {
		pos := &sim.HookPos{Name: "Test"}
		counter := &TrafficCounter{Pos: pos}
		msg.Size = 2
		flits := SplitMessage(msg, 16, idGen)[0].Flits()

		for _, f := range flits {
			counter.Func(sim.HookCtx{Pos: pos, Item: f})
		}
		counter.Func(sim.HookCtx{Pos: &sim.HookPos{Name: "Other"}, Item: flits[0]})

		Expect(counter.NumFlits).To(Equal(uint64(2)))
		Expect(counter.NumPackets).To(Equal(uint64(1)))
	})
})
