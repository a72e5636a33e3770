package messaging

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// A TrafficCounter counts the flits and packets reported at one hook
// position.
type TrafficCounter struct {
	Pos        *sim.HookPos
	NumFlits   uint64
	NumPackets uint64
}

// Func adds the flit carried by the hook context to the counter.
func (c *TrafficCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != c.Pos {
		return
	}

	f, ok := ctx.Item.(*Flit)
	if !ok {
		return
	}

	c.NumFlits++
	if f.IsTail() {
		c.NumPackets++
	}
}
