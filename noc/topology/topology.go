// Package topology describes the static graph of routers, servers and links.
package topology

// LocationKind tells what sits at the far end of a port.
type LocationKind int

// The possible kinds of location.
const (
	// LocationNone marks a port that is not connected, such as the boundary
	// ports of a mesh.
	LocationNone LocationKind = iota
	LocationRouterPort
	LocationServer
)

// A Location is the far end of a link.
type Location struct {
	Kind   LocationKind
	Router int
	Port   int
	Server int
}

// IsRouter returns true if the location is a router port.
func (l Location) IsRouter() bool {
	return l.Kind == LocationRouterPort
}

// IsServer returns true if the location is a server.
func (l Location) IsServer() bool {
	return l.Kind == LocationServer
}

// A Topology is immutable once built. Ports of a router are numbered with the
// router-to-router ports first, 0 to MaximumDegree()-1, followed by one port
// per attached server.
type Topology interface {
	// NumRouters returns the number of routers.
	NumRouters() int

	// NumServers returns the number of servers.
	NumServers() int

	// Ports returns the number of ports of a router, server ports included.
	Ports(router int) int

	// MaximumDegree returns the number of router-to-router ports per router.
	MaximumDegree() int

	// Neighbour returns what is connected to a router port and the class of
	// the link.
	Neighbour(router, port int) (Location, int)

	// ServerNeighbour returns the router port a server is attached to and the
	// class of the link.
	ServerNeighbour(server int) (Location, int)

	// ServersAt returns the servers attached to a router.
	ServersAt(router int) []int

	// Distance returns the number of router-to-router hops of the shortest
	// path between two routers.
	Distance(a, b int) int

	// Diameter returns the maximum distance between any two routers.
	Diameter() int

	// Coordinates returns the coordinates of a router.
	Coordinates(router int) []int

	// IsDirectionChange tells whether a packet moving from inPort to outPort
	// leaves the ring or line it arrived on. Injections are direction
	// changes.
	IsDirectionChange(router, inPort, outPort int) bool

	// NumLinkClasses returns the number of distinct link classes used.
	NumLinkClasses() int
}

// LinkClass returns the class of the link attached to a router port.
func LinkClass(t Topology, router, port int) int {
	_, class := t.Neighbour(router, port)
	return class
}
