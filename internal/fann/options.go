package fann

import (
	"math/rand/v2"
	"time"
)

// Option configures a Network or TrainData at construction.
type Option func(*options)

type options struct {
	seed   uint64
	seeded bool
}

// WithSeed makes weight initialisation and shuffling reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

func newRand(opts []Option) *rand.Rand {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = uint64(time.Now().UnixNano())
	}
	return seededRand(o.seed)
}

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// child derives an independent generator for a copied object.
func child(r *rand.Rand) *rand.Rand {
	return seededRand(r.Uint64())
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
