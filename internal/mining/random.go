package mining

import (
	"math"
	"math/rand/v2"
)

// RandomSource yields uniform floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewSource returns a seeded PCG generator. The same seed always yields the
// same sequence.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sequence replays a fixed list of draws. Once exhausted it returns NaN,
// which Generate reports as a ConfigurationError.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence over values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next value, or NaN when none are left.
func (s *Sequence) Float64() float64 {
	if s.next >= len(s.values) {
		return math.NaN()
	}
	v := s.values[s.next]
	s.next++
	return v
}

// Remaining returns how many draws are left.
func (s *Sequence) Remaining() int {
	return len(s.values) - s.next
}
