package search

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/scoring"
	"github.com/umafamily/affinity/pkg/types"
)

func unitFor(in Input, rank int, parents types.Pair) Unit {
	candidates := Without(types.EntityIDs(in.Entities), in.Focal)
	return Unit{
		Rank:    rank,
		Focal:   in.Focal,
		Parents: parents,
		SideO:   Combinations(Without(candidates, parents.A)),
		SideK:   Combinations(Without(candidates, parents.B)),
	}
}

func TestProcessScoresEveryCombination(t *testing.T) {
	in := randomInput(t, 3, 9)
	s := scoring.New(in.Rules, in.Index)
	u := unitFor(in, 0, types.Pair{A: 2, B: 5})

	got, err := Process(context.Background(), s, u)
	require.NoError(t, err)
	require.Len(t, got, u.Combinations())
	require.Equal(t, 21*21, u.Combinations())

	i := 0
	for _, o := range u.SideO {
		for _, k := range u.SideK {
			want := types.Assignment{
				O: 2, Z: o.A, J: o.B, K: 5, X: k.A, Y: k.B,
				Score: s.Score(in.Focal, 2, 5, o.A, o.B, k.A, k.B),
			}
			require.Equal(t, want, got[i])
			i++
		}
	}
}

func TestProcessTopMatchesSortedProcess(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		in := randomInput(t, seed, 10)
		s := scoring.New(in.Rules, in.Index)
		u := unitFor(in, 0, types.Pair{A: 3, B: 4})

		all, err := Process(context.Background(), s, u)
		require.NoError(t, err)

		for _, k := range []int{1, 2, 16, 100, len(all), len(all) + 5} {
			top, err := ProcessTop(context.Background(), s, u, k)
			require.NoError(t, err)

			want := Reduce([][]types.Assignment{all}, k)
			if diff := cmp.Diff(want, top); diff != "" {
				t.Fatalf("seed %d, k %d: mismatch (-want +got):\n%s", seed, k, diff)
			}
		}

		for _, k := range []int{0, -1} {
			none, err := ProcessTop(context.Background(), s, u, k)
			require.NoError(t, err)
			require.Empty(t, none)
			require.Empty(t, Reduce([][]types.Assignment{all}, k))
		}
	}
}

func TestProcessSideWithoutPairs(t *testing.T) {
	in := friendFixture(t)
	s := scoring.New(in.Rules, in.Index)

	u := Unit{
		Focal:   in.Focal,
		Parents: types.Pair{A: 2, B: 3},
		SideO:   nil,
		SideK:   Combinations([]types.EntityID{2, 4}),
	}
	require.Zero(t, u.Combinations())

	got, err := Process(context.Background(), s, u)
	require.NoError(t, err)
	require.Empty(t, got)

	top, err := ProcessTop(context.Background(), s, u, 16)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestProcessStopsOnCanceledContext(t *testing.T) {
	in := randomInput(t, 1, 8)
	s := scoring.New(in.Rules, in.Index)
	u := unitFor(in, 0, types.Pair{A: 2, B: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, s, u)
	require.ErrorIs(t, err, context.Canceled)
	_, err = ProcessTop(ctx, s, u, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReduce(t *testing.T) {
	a := []types.Assignment{{O: 1, Score: 5}, {O: 2, Score: 3}}
	b := []types.Assignment{{O: 3, Score: 5}, {O: 4, Score: 9}}

	require.Equal(t, []types.Assignment{
		{O: 4, Score: 9}, {O: 1, Score: 5}, {O: 3, Score: 5},
	}, Reduce([][]types.Assignment{a, b}, 3))

	require.Len(t, Reduce([][]types.Assignment{a, b}, 16), 4)
	require.Empty(t, Reduce(nil, 16))
	require.Empty(t, Reduce([][]types.Assignment{a, b}, 0))
	require.Empty(t, Reduce([][]types.Assignment{a, b}, -1))
}
