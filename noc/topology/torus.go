package topology

// Torus is a Cartesian grid with wrap-around links, so every dimension is a
// ring. Ports are numbered as in Mesh. A dimension of side 1 has no links.
type Torus struct {
	cartesian
}

func (t *Torus) MaximumDegree() int {
	return 2 * len(t.sides)
}

func (t *Torus) Ports(_ int) int {
	return t.MaximumDegree() + t.serversPerRouter
}

func (t *Torus) Neighbour(router, port int) (Location, int) {
	if port >= t.MaximumDegree() {
		return t.serverAtPort(t.MaximumDegree(), router, port)
	}

	d := port / 2
	side := t.sides[d]

	if side == 1 {
		return Location{Kind: LocationNone}, d
	}

	coords := t.Unpack(router)
	if port%2 == 0 {
		coords[d] = (coords[d] + side - 1) % side
	} else {
		coords[d] = (coords[d] + 1) % side
	}

	return Location{
		Kind:   LocationRouterPort,
		Router: t.Pack(coords),
		Port:   port ^ 1,
	}, d
}

func (t *Torus) ServerNeighbour(server int) (Location, int) {
	return t.serverNeighbour(t.MaximumDegree(), server)
}

func (t *Torus) Distance(a, b int) int {
	ca, cb := t.Unpack(a), t.Unpack(b)

	distance := 0
	for d, side := range t.sides {
		delta := abs(ca[d] - cb[d])
		distance += min(delta, side-delta)
	}

	return distance
}

func (t *Torus) Diameter() int {
	diameter := 0
	for _, side := range t.sides {
		diameter += side / 2
	}

	return diameter
}

func (t *Torus) IsDirectionChange(_, inPort, outPort int) bool {
	return inPort/2 != outPort/2
}
