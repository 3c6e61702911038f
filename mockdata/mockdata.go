// Package mockdata generates benchmark input: permutations of 0..amount-1.
package mockdata

import (
	"math/rand/v2"
)

// Ordered returns 0, 1, ..., amount-1. A non-positive amount yields an
// empty slice.
func Ordered(amount int) []int {
	if amount <= 0 {
		return []int{}
	}

	data := make([]int, amount)
	for i := range data {
		data[i] = i
	}
	return data
}

// Shuffled returns Ordered(amount) in an order drawn from rng.
func Shuffled(amount int, rng *rand.Rand) []int {
	data := Ordered(amount)
	rng.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})
	return data
}

// Generate returns a freshly seeded random permutation of 0..amount-1.
func Generate(amount int) []int {
	return Shuffled(amount, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}
