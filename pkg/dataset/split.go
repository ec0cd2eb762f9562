package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Splitter derives held-out partitions with a seeded generator. Successive
// splits draw from the same generator, so a fixed seed reproduces the whole
// sequence.
type Splitter struct {
	rng *rand.Rand
}

// NewSplitter returns a Splitter seeded with seed.
func NewSplitter(seed int64) *Splitter {
	return &Splitter{rng: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Split divides p into a retained part, keeping p's name, and a held-out
// part named heldOut with ceil(fraction*n) samples. Both parts follow a
// random permutation of p; labels travel with their features.
func (s *Splitter) Split(p *Partition, fraction float64, heldOut Name) (retained, held *Partition, err error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, nil, fmt.Errorf("%w: got %g", ErrInvalidFraction, fraction)
	}
	n := p.Len()
	k := int(math.Ceil(fraction * float64(n)))
	if n < 2 || k >= n {
		return nil, nil, fmt.Errorf("%w: %s has %d samples, fraction %g", ErrTooFewSamples, p.Name, n, fraction)
	}

	perm := s.rng.Perm(n)
	held = p.subset(heldOut, perm[:k])
	held.Derived = true
	retained = p.subset(p.Name, perm[k:])
	return retained, held, nil
}
