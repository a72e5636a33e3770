package topology

// Hamming connects every pair of routers that differ in exactly one
// coordinate. Dimension d owns side[d]-1 ports; port k of the dimension
// reaches coordinate (c+k+1) mod side.
type Hamming struct {
	cartesian
	offsets []int
	degree  int
}

func newHamming(c cartesian) *Hamming {
	h := &Hamming{cartesian: c, offsets: make([]int, len(c.sides))}

	for d, side := range c.sides {
		h.offsets[d] = h.degree
		h.degree += side - 1
	}

	return h
}

func (h *Hamming) MaximumDegree() int {
	return h.degree
}

func (h *Hamming) Ports(_ int) int {
	return h.degree + h.serversPerRouter
}

// dimensionOf returns the dimension of a router port and its index within the
// dimension.
func (h *Hamming) dimensionOf(port int) (int, int) {
	for d := len(h.sides) - 1; d >= 0; d-- {
		if port >= h.offsets[d] {
			return d, port - h.offsets[d]
		}
	}

	return 0, port
}

func (h *Hamming) Neighbour(router, port int) (Location, int) {
	if port >= h.degree {
		return h.serverAtPort(h.degree, router, port)
	}

	d, k := h.dimensionOf(port)
	side := h.sides[d]
	coords := h.Unpack(router)
	coords[d] = (coords[d] + k + 1) % side

	return Location{
		Kind:   LocationRouterPort,
		Router: h.Pack(coords),
		Port:   h.offsets[d] + side - 2 - k,
	}, d
}

func (h *Hamming) ServerNeighbour(server int) (Location, int) {
	return h.serverNeighbour(h.degree, server)
}

func (h *Hamming) Distance(a, b int) int {
	ca, cb := h.Unpack(a), h.Unpack(b)

	distance := 0
	for d := range h.sides {
		if ca[d] != cb[d] {
			distance++
		}
	}

	return distance
}

func (h *Hamming) Diameter() int {
	diameter := 0
	for _, side := range h.sides {
		if side > 1 {
			diameter++
		}
	}

	return diameter
}

// IsDirectionChange is always true. Every hop in a Hamming graph may close a
// cycle, so every head flit is subject to the bubble rule.
func (h *Hamming) IsDirectionChange(_, _, _ int) bool {
	return true
}
