package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPickOne_Deterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	require.Equal(t, PickOne(NewRand(99), items), PickOne(NewRand(99), items))
}

func TestIntBetween_Inclusive(t *testing.T) {
	r := NewRand(5)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := IntBetween(r, 1, 3)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 3)
		seen[v] = true
	}
	require.Len(t, seen, 3)
	require.Equal(t, 4, IntBetween(r, 4, 4))
	require.Equal(t, 4, IntBetween(r, 4, 2))
}

func TestJitter_Bounded(t *testing.T) {
	r := NewRand(11)
	for i := 0; i < 1000; i++ {
		v := Jitter(r, 10, 0.025)
		require.GreaterOrEqual(t, v, 9.975)
		require.Less(t, v, 10.025)
	}
}

func TestSubset_DistinctAndClamped(t *testing.T) {
	r := NewRand(8)
	items := []int{1, 2, 3}
	for i := 0; i < 100; i++ {
		got := Subset(r, items, 2, 10)
		require.GreaterOrEqual(t, len(got), 2)
		require.LessOrEqual(t, len(got), 3)
		seen := map[int]bool{}
		for _, v := range got {
			require.False(t, seen[v])
			seen[v] = true
		}
	}
	require.Empty(t, Subset(r, []int{}, 1, 2))
}
