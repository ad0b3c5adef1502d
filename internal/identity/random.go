package identity

import "math/rand/v2"

// NewRand returns a source seeded from seed. A zero seed is still a fixed
// seed; callers wanting fresh randomness pass rand.Uint64().
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PickOne returns a uniformly chosen element. items must not be empty.
func PickOne[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// IntBetween returns a uniform integer in [lo, hi].
func IntBetween(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Jitter adds uniform noise in [-spread, +spread) to v.
func Jitter(r *rand.Rand, v, spread float64) float64 {
	return v + (r.Float64()*2-1)*spread
}

// Subset returns between lo and hi distinct elements of items, in random
// order. The bounds are clamped to len(items).
func Subset[T any](r *rand.Rand, items []T, lo, hi int) []T {
	hi = min(hi, len(items))
	lo = min(max(lo, 0), hi)
	n := IntBetween(r, lo, hi)
	out := make([]T, 0, n)
	for _, i := range r.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
