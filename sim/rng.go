package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
)

// Subsystem names used to derive random streams.
const (
	SubsystemTraffic = "traffic"
	SubsystemPattern = "pattern"
)

// SubsystemRouter returns the stream name of the router with the given index.
func SubsystemRouter(index int) string {
	return fmt.Sprintf("router_%d", index)
}

// PartitionedRNG hands out deterministic random streams derived from a single
// seed. Each stream is seeded with seed ^ fnv1a64(name), so adding a stream
// never perturbs the numbers drawn by another one.
//
// ForSubsystem is safe for concurrent use. The returned *rand.Rand is not and
// must stay with its single owner.
type PartitionedRNG struct {
	lock       sync.Mutex
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// ForSubsystem returns the stream of the named subsystem. The same name always
// returns the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	p.lock.Lock()
	defer p.lock.Unlock()

	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng

	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return int64(h.Sum64())
}
