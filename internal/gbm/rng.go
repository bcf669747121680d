// Package gbm provides the stochastic primitives for Geometric Brownian
// Motion simulation: a deterministic uniform source, a standard-normal
// sampler, and a single-path price generator.
package gbm

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
)

// Rand is a seeded uniform source over [0, 1). It is a 32-bit
// xorshift-multiply scrambler with one additive constant per step, so the
// full sequence is reproducible bit for bit from the seed on any platform.
// Not safe for concurrent use; each generation call owns its own instance.
type Rand struct {
	state uint32
}

// New returns a deterministic source for the given seed.
func New(seed int64) *Rand {
	return &Rand{state: uint32(seed)}
}

// NewSystem returns a source seeded from the operating system's entropy
// pool. Used when the caller supplies no seed and does not need
// reproducibility.
func NewSystem() *Rand {
	var buf [4]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// crypto/rand read failures are not recoverable here; an arbitrary
		// fixed seed keeps the simulation usable.
		return &Rand{state: 0x9E3779B9}
	}
	return &Rand{state: binary.LittleEndian.Uint32(buf[:])}
}

// ForSeed returns a deterministic source when seed is non-nil and a system
// source otherwise.
func ForSeed(seed *int64) *Rand {
	if seed != nil {
		return New(*seed)
	}
	return NewSystem()
}

// Float64 advances the state and returns the next uniform draw in [0, 1).
func (r *Rand) Float64() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	t ^= t >> 14
	return float64(t) / 4294967296.0
}

// NormFloat64 returns one standard-normal sample via the Box-Muller
// transform. Each call consumes two fresh uniforms; the paired sample is
// deliberately discarded to keep the sampler stateless. A zero first draw is
// resampled so log(0) never propagates.
func (r *Rand) NormFloat64() float64 {
	u1 := r.Float64()
	for u1 == 0 {
		u1 = r.Float64()
	}
	u2 := r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
