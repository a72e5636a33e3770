package topology

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// cartesian holds the coordinate arithmetic shared by Mesh, Torus and
// Hamming. Router index r has coordinate r/stride[d] % side[d] in dimension d.
type cartesian struct {
	sides            []int
	strides          []int
	size             int
	serversPerRouter int
}

func newCartesian(sides []int, serversPerRouter int) (cartesian, error) {
	if len(sides) == 0 {
		return cartesian{}, sim.NewConfigurationError(
			"topology.sides", "at least one dimension is required")
	}

	if serversPerRouter < 1 {
		return cartesian{}, sim.NewConfigurationError(
			"topology.servers_per_router",
			"must be positive, got %d", serversPerRouter)
	}

	c := cartesian{
		sides:            append([]int(nil), sides...),
		strides:          make([]int, len(sides)),
		size:             1,
		serversPerRouter: serversPerRouter,
	}

	for d, side := range sides {
		if side < 1 {
			return cartesian{}, sim.NewConfigurationError(
				"topology.sides", "side of dimension %d must be positive, got %d",
				d, side)
		}

		c.strides[d] = c.size
		c.size *= side
	}

	return c, nil
}

// Unpack converts a router index into coordinates.
func (c cartesian) Unpack(router int) []int {
	coords := make([]int, len(c.sides))
	for d := range c.sides {
		coords[d] = router / c.strides[d] % c.sides[d]
	}

	return coords
}

// Pack converts coordinates into a router index.
func (c cartesian) Pack(coords []int) int {
	router := 0
	for d := range c.sides {
		router += coords[d] * c.strides[d]
	}

	return router
}

// Sides returns a copy of the side lengths.
func (c cartesian) Sides() []int {
	return append([]int(nil), c.sides...)
}

func (c cartesian) NumRouters() int {
	return c.size
}

func (c cartesian) NumServers() int {
	return c.size * c.serversPerRouter
}

func (c cartesian) Coordinates(router int) []int {
	return c.Unpack(router)
}

func (c cartesian) ServersAt(router int) []int {
	servers := make([]int, c.serversPerRouter)
	for i := range servers {
		servers[i] = router*c.serversPerRouter + i
	}

	return servers
}

func (c cartesian) serverLinkClass() int {
	return len(c.sides)
}

func (c cartesian) NumLinkClasses() int {
	return len(c.sides) + 1
}

func (c cartesian) serverNeighbour(degree, server int) (Location, int) {
	return Location{
		Kind:   LocationRouterPort,
		Router: server / c.serversPerRouter,
		Port:   degree + server%c.serversPerRouter,
	}, c.serverLinkClass()
}

func (c cartesian) serverAtPort(degree, router, port int) (Location, int) {
	offset := port - degree
	if offset < 0 || offset >= c.serversPerRouter {
		return Location{Kind: LocationNone}, c.serverLinkClass()
	}

	return Location{
		Kind:   LocationServer,
		Server: router*c.serversPerRouter + offset,
	}, c.serverLinkClass()
}
