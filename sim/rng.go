package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. Equal keys and equal
// configuration give the same patient flow.
type SimulationKey int64

// NewSimulationKey wraps a CLI or test seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random streams. Each one is seeded independently so extra draws in one
// (a longer replay, a new severity) leave the others untouched.
const (
	SubsystemArrivals = "arrivals" // arrival counts, severities, specialties
	SubsystemStay     = "stay"     // consultation and critical-care durations
	SubsystemIdentity = "identity" // generated patient ids
)

// PartitionedRNG hands out one *rand.Rand per stream. The arrivals stream is
// seeded with the key itself; every other stream with the key XOR the FNV-1a
// hash of its name. Not safe for concurrent use.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	r, ok := p.streams[name]
	if !ok {
		r = rand.New(rand.NewSource(streamSeed(p.key, name)))
		p.streams[name] = r
	}
	return r
}

func streamSeed(key SimulationKey, name string) int64 {
	if name == SubsystemArrivals {
		return int64(key)
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(key) ^ int64(h.Sum64())
}
