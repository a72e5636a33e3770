package topology

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustBuild(kind string, sides []int, spr int) Topology {
	t, err := MakeBuilder().
		WithKind(kind).
		WithSides(sides).
		WithServersPerRouter(spr).
		Build()
	Expect(err).NotTo(HaveOccurred())

	return t
}

// linksMustBeSymmetric checks that following a link and then the link at the
// far end returns to the starting port.
func linksMustBeSymmetric(t Topology) {
	for r := 0; r < t.NumRouters(); r++ {
		for p := 0; p < t.Ports(r); p++ {
			loc, class := t.Neighbour(r, p)

			switch loc.Kind {
			case LocationRouterPort:
				back, backClass := t.Neighbour(loc.Router, loc.Port)
				Expect(back).To(Equal(Location{
					Kind: LocationRouterPort, Router: r, Port: p,
				}))
				Expect(backClass).To(Equal(class))
			case LocationServer:
				back, _ := t.ServerNeighbour(loc.Server)
				Expect(back.Router).To(Equal(r))
				Expect(back.Port).To(Equal(p))
			}
		}
	}
}

var _ = Describe("Builder", func() {
	It("should reject an empty shape", func() {
		_, err := MakeBuilder().WithKind(KindMesh).Build()
		Expect(err).To(BeAssignableToTypeOf(&sim.ConfigurationError{}))
	})

	It("should reject a non-positive side", func() {
		_, err := MakeBuilder().WithKind(KindTorus).WithSides([]int{4, 0}).Build()
		Expect(err).To(HaveOccurred())
		Expect(err.(*sim.ConfigurationError).Field).To(Equal("topology.sides"))
	})

	It("should reject zero servers per router", func() {
		_, err := MakeBuilder().
			WithSides([]int{2}).
			WithServersPerRouter(0).
			Build()
		Expect(err).To(HaveOccurred())
	})

	It("should reject unknown kinds", func() {
		_, err := MakeBuilder().WithKind("dragonfly").WithSides([]int{2}).Build()
		Expect(err).To(MatchError(ContainSubstring("dragonfly")))
	})
})

var _ = Describe("Mesh", func() {
	var t Topology

	BeforeEach(func() {
		t = mustBuild(KindMesh, []int{4, 3}, 2)
	})

	It("should count routers, servers and ports", func() {
		Expect(t.NumRouters()).To(Equal(12))
		Expect(t.NumServers()).To(Equal(24))
		Expect(t.MaximumDegree()).To(Equal(4))
		Expect(t.Ports(0)).To(Equal(6))
		Expect(t.NumLinkClasses()).To(Equal(3))
	})

	It("should leave boundary ports unconnected", func() {
		loc, _ := t.Neighbour(0, 0)
		Expect(loc.Kind).To(Equal(LocationNone))

		loc, class := t.Neighbour(0, 1)
		Expect(loc).To(Equal(Location{Kind: LocationRouterPort, Router: 1, Port: 0}))
		Expect(class).To(Equal(0))

		loc, class = t.Neighbour(0, 3)
		Expect(loc.Router).To(Equal(4))
		Expect(class).To(Equal(1))
	})

	It("should attach servers after router ports", func() {
		loc, class := t.Neighbour(5, 5)
		Expect(loc).To(Equal(Location{Kind: LocationServer, Server: 11}))
		Expect(class).To(Equal(2))
		Expect(LinkClass(t, 5, 5)).To(Equal(2))
		Expect(LinkClass(t, 5, 3)).To(Equal(1))
		Expect(t.ServersAt(5)).To(Equal([]int{10, 11}))

		back, _ := t.ServerNeighbour(11)
		Expect(back).To(Equal(Location{Kind: LocationRouterPort, Router: 5, Port: 5}))
	})

	It("should compute distances and diameter", func() {
		Expect(t.Distance(0, 11)).To(Equal(5))
		Expect(t.Coordinates(11)).To(Equal([]int{3, 2}))
		Expect(t.Diameter()).To(Equal(5))

		measured, err := MeasureDiameter(t)
		Expect(err).NotTo(HaveOccurred())
		Expect(measured).To(Equal(t.Diameter()))
	})

	It("should tell direction changes", func() {
		Expect(t.IsDirectionChange(0, 0, 1)).To(BeFalse())
		Expect(t.IsDirectionChange(0, 1, 2)).To(BeTrue())
		Expect(t.IsDirectionChange(0, 4, 1)).To(BeTrue())
	})

	It("should have symmetric links", func() {
		linksMustBeSymmetric(t)
	})
})

var _ = Describe("Torus", func() {
	var t Topology

	BeforeEach(func() {
		t = mustBuild(KindTorus, []int{5, 4}, 1)
	})

	It("should wrap around", func() {
		loc, _ := t.Neighbour(0, 0)
		Expect(loc).To(Equal(Location{Kind: LocationRouterPort, Router: 4, Port: 1}))

		loc, _ = t.Neighbour(4, 1)
		Expect(loc).To(Equal(Location{Kind: LocationRouterPort, Router: 0, Port: 0}))
	})

	It("should use the short way around", func() {
		Expect(t.Distance(0, 4)).To(Equal(1))
		Expect(t.Distance(0, 2+5*2)).To(Equal(4))
		Expect(t.Diameter()).To(Equal(4))

		measured, err := MeasureDiameter(t)
		Expect(err).NotTo(HaveOccurred())
		Expect(measured).To(Equal(4))
	})

	It("should have symmetric links", func() {
		linksMustBeSymmetric(t)
	})

	It("should leave dimensions of side 1 unconnected", func() {
		t = mustBuild(KindTorus, []int{3, 1}, 1)
		loc, _ := t.Neighbour(0, 2)
		Expect(loc.Kind).To(Equal(LocationNone))
		Expect(t.Diameter()).To(Equal(1))
	})
})

var _ = Describe("Hamming", func() {
	var t Topology

	BeforeEach(func() {
		t = mustBuild(KindHamming, []int{4, 3}, 1)
	})

	It("should give side-1 ports per dimension", func() {
		Expect(t.MaximumDegree()).To(Equal(3 + 2))
		Expect(t.Ports(0)).To(Equal(6))
	})

	It("should connect routers differing in one coordinate", func() {
		for p := 0; p < t.MaximumDegree(); p++ {
			loc, _ := t.Neighbour(5, p)
			Expect(loc.IsRouter()).To(BeTrue())
			Expect(t.Distance(5, loc.Router)).To(Equal(1))
		}

		loc, class := t.Neighbour(0, 0)
		Expect(loc.Router).To(Equal(1))
		Expect(class).To(Equal(0))

		loc, class = t.Neighbour(0, 3)
		Expect(loc.Router).To(Equal(4))
		Expect(class).To(Equal(1))
	})

	It("should have diameter equal to the number of dimensions", func() {
		Expect(t.Diameter()).To(Equal(2))

		measured, err := MeasureDiameter(t)
		Expect(err).NotTo(HaveOccurred())
		Expect(measured).To(Equal(2))
	})

	It("should have symmetric links", func() {
		linksMustBeSymmetric(t)
	})

	It("should treat every hop as a direction change", func() {
		Expect(t.IsDirectionChange(0, 0, 1)).To(BeTrue())
	})
})

var _ = Describe("DistanceTable", func() {
	It("should agree with closed-form distances", func() {
		for _, kind := range []string{KindMesh, KindTorus, KindHamming} {
			t := mustBuild(kind, []int{4, 3}, 1)
			dt := NewDistanceTable(t)

			for a := 0; a < t.NumRouters(); a++ {
				for b := 0; b < t.NumRouters(); b++ {
					Expect(dt.Distance(a, b)).To(Equal(t.Distance(a, b)),
						"%s distance %d-%d", kind, a, b)
				}
			}
		}
	})
})
