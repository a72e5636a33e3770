package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PartitionedRNG", func() {
	draw := func(p *PartitionedRNG, name string) []int {
		rng := p.ForSubsystem(name)
		out := make([]int, 8)
		for i := range out {
			out[i] = rng.Intn(1 << 20)
		}

		return out
	}

	It("should return the same stream for the same name", func() {
		p := NewPartitionedRNG(7)
		Expect(p.ForSubsystem("a")).To(BeIdenticalTo(p.ForSubsystem("a")))
	})

	It("should reproduce streams from the same seed", func() {
		Expect(draw(NewPartitionedRNG(7), SubsystemRouter(3))).
			To(Equal(draw(NewPartitionedRNG(7), SubsystemRouter(3))))
	})

	It("should isolate subsystems", func() {
		p1 := NewPartitionedRNG(7)
		first := draw(p1, SubsystemTraffic)

		p2 := NewPartitionedRNG(7)
		draw(p2, SubsystemRouter(0))
		second := draw(p2, SubsystemTraffic)

		Expect(second).To(Equal(first))
		Expect(draw(p2, SubsystemRouter(1))).NotTo(Equal(first))
	})
})
