package topology

// Mesh is a Cartesian grid without wrap-around links. Port 2d reaches the
// neighbour at coordinate -1 in dimension d and port 2d+1 the one at +1.
type Mesh struct {
	cartesian
}

func (m *Mesh) MaximumDegree() int {
	return 2 * len(m.sides)
}

func (m *Mesh) Ports(_ int) int {
	return m.MaximumDegree() + m.serversPerRouter
}

func (m *Mesh) Neighbour(router, port int) (Location, int) {
	if port >= m.MaximumDegree() {
		return m.serverAtPort(m.MaximumDegree(), router, port)
	}

	d := port / 2
	coords := m.Unpack(router)

	if port%2 == 0 {
		coords[d]--
	} else {
		coords[d]++
	}

	if coords[d] < 0 || coords[d] >= m.sides[d] {
		return Location{Kind: LocationNone}, d
	}

	return Location{
		Kind:   LocationRouterPort,
		Router: m.Pack(coords),
		Port:   port ^ 1,
	}, d
}

func (m *Mesh) ServerNeighbour(server int) (Location, int) {
	return m.serverNeighbour(m.MaximumDegree(), server)
}

func (m *Mesh) Distance(a, b int) int {
	ca, cb := m.Unpack(a), m.Unpack(b)

	distance := 0
	for d := range m.sides {
		distance += abs(ca[d] - cb[d])
	}

	return distance
}

func (m *Mesh) Diameter() int {
	diameter := 0
	for _, side := range m.sides {
		diameter += side - 1
	}

	return diameter
}

func (m *Mesh) IsDirectionChange(_, inPort, outPort int) bool {
	return inPort/2 != outPort/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
