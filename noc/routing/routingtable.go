package routing

import (
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/topology"
)

// Table is a routing table that can find the next-hop ports according to the
// destination router.
type Table interface {
	FindPorts(dstRouter int) []int
	DefineRoute(dstRouter int, outputPorts ...int)
	DefineDefaultRoute(outputPorts ...int)
}

// NewTable creates a new Table.
func NewTable() Table {
	t := &table{}
	t.t = make(map[int][]int)

	return t
}

type table struct {
	t            map[int][]int
	defaultPorts []int
}

func (t table) FindPorts(dstRouter int) []int {
	out, found := t.t[dstRouter]
	if found {
		return out
	}

	return t.defaultPorts
}

func (t *table) DefineRoute(dstRouter int, outputPorts ...int) {
	t.t[dstRouter] = append([]int(nil), outputPorts...)
}

func (t *table) DefineDefaultRoute(outputPorts ...int) {
	t.defaultPorts = append([]int(nil), outputPorts...)
}

// TableRouting is table-driven minimal routing. Each router holds a Table
// filled from Dijkstra shortest-path distances at construction, so no
// distance is computed while the network runs.
type TableRouting struct {
	topology topology.Topology
	numVC    int
	tables   []Table
	hops     [][]int
}

// NewTableRouting fills one table per router.
func NewTableRouting(t topology.Topology, numVC int) *TableRouting {
	dt := topology.NewDistanceTable(t)
	r := &TableRouting{
		topology: t,
		numVC:    numVC,
		tables:   make([]Table, t.NumRouters()),
		hops:     make([][]int, t.NumRouters()),
	}

	for router := range r.tables {
		r.tables[router] = NewTable()
		r.hops[router] = make([]int, t.NumRouters())

		for dst := 0; dst < t.NumRouters(); dst++ {
			r.hops[router][dst] = dt.Distance(router, dst)
			r.tables[router].DefineRoute(dst,
				nextHops(t, dt, router, dst)...)
		}
	}

	return r
}

func nextHops(
	t topology.Topology,
	dt *topology.DistanceTable,
	router, dst int,
) []int {
	distance := dt.Distance(router, dst)
	if distance <= 0 {
		return nil
	}

	var ports []int

	for p := 0; p < t.MaximumDegree(); p++ {
		loc, _ := t.Neighbour(router, p)
		if loc.IsRouter() && dt.Distance(loc.Router, dst) == distance-1 {
			ports = append(ports, p)
		}
	}

	return ports
}

// Table returns the table of a router.
func (r *TableRouting) Table(router int) Table {
	return r.tables[router]
}

// Candidates looks the destination router up in the table.
func (r *TableRouting) Candidates(
	router, _, _ int,
	packet *messaging.Packet,
) ([]Candidate, error) {
	target, serverPort := destinationRouter(r.topology, packet)
	if target == router {
		return allVCs(serverPort, r.numVC, 0, 0), nil
	}

	ports := r.tables[router].FindPorts(target)
	if len(ports) == 0 {
		return nil, noRouteError(router, packet)
	}

	var candidates []Candidate
	for _, p := range ports {
		candidates = append(candidates,
			allVCs(p, r.numVC, 0, r.hops[router][target])...)
	}

	return candidates, nil
}
