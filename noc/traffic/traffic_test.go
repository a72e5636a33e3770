package traffic

import (
	"math/rand"

	"github.com/nakacristo/caminos-lib-sub002/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Traffic", func() {
	shift := func() Pattern {
		p, err := MakePatternBuilder().
			WithKind(PatternCartesianTransform).
			WithNumServers(2).
			WithShift([]int{1}).
			Build()
		Expect(err).NotTo(HaveOccurred())

		return p
	}

	Context("burst", func() {
		It("should generate the configured messages and stop", func() {
			t, err := MakeBuilder().
				WithPattern(shift()).
				WithNumServers(2).
				WithMessagesPerServer(2).
				WithMessageSize(3).
				Build()
			Expect(err).NotTo(HaveOccurred())

			m, err := t.Generate(0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Source).To(Equal(0))
			Expect(m.Destination).To(Equal(1))
			Expect(m.Size).To(Equal(3))

			m, _ = t.Generate(0, 1)
			Expect(m).NotTo(BeNil())
			Expect(m.CreationCycle).To(Equal(sim.Cycle(1)))

			m, _ = t.Generate(0, 2)
			Expect(m).To(BeNil())
			Expect(t.Finished(2)).To(BeFalse())

			_, _ = t.Generate(1, 2)
			_, _ = t.Generate(1, 3)
			Expect(t.Finished(3)).To(BeTrue())
		})

		It("should report self messages", func() {
			p, err := MakePatternBuilder().
				WithKind(PatternIdentity).
				WithNumServers(1).
				Build()
			Expect(err).NotTo(HaveOccurred())

			t, err := MakeBuilder().
				WithPattern(p).
				WithNumServers(1).
				Build()
			Expect(err).NotTo(HaveOccurred())

			_, err = t.Generate(0, 0)
			Expect(err).To(MatchError(ErrSelfMessage))
			Expect(t.Finished(0)).To(BeTrue())
		})
	})

	Context("homogeneous", func() {
		It("should offer the configured load", func() {
			t, err := MakeBuilder().
				WithKind(KindHomogeneous).
				WithPattern(shift()).
				WithNumServers(2).
				WithLoad(0.5).
				WithMessageSize(2).
				WithRand(rand.New(rand.NewSource(1))).
				Build()
			Expect(err).NotTo(HaveOccurred())

			generated := 0
			for now := sim.Cycle(0); now < 4000; now++ {
				m, err := t.Generate(0, now)
				Expect(err).NotTo(HaveOccurred())
				if m != nil {
					generated++
				}
			}

			Expect(generated).To(BeNumerically("~", 1000, 150))
			Expect(t.Finished(4000)).To(BeFalse())
		})

		It("should stop after the configured cycles", func() {
			t, err := MakeBuilder().
				WithKind(KindHomogeneous).
				WithPattern(shift()).
				WithNumServers(2).
				WithLoad(1).
				WithCycles(10).
				WithRand(rand.New(rand.NewSource(1))).
				Build()
			Expect(err).NotTo(HaveOccurred())

			m, _ := t.Generate(0, 9)
			Expect(m).NotTo(BeNil())
			m, _ = t.Generate(0, 10)
			Expect(m).To(BeNil())
			Expect(t.Finished(10)).To(BeTrue())
		})

		It("should reject loads above one", func() {
			_, err := MakeBuilder().
				WithKind(KindHomogeneous).
				WithPattern(shift()).
				WithLoad(1.5).
				Build()

			Expect(err).To(BeAssignableToTypeOf(&sim.ConfigurationError{}))
		})
	})

	It("should reject unknown traffics", func() {
		_, err := MakeBuilder().
			WithKind("trace").
			WithPattern(shift()).
			Build()

		Expect(err).To(HaveOccurred())
	})
})
