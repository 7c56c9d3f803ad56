package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/scoring"
	"github.com/umafamily/affinity/pkg/types"
)

func TestCombinations(t *testing.T) {
	require.Nil(t, Combinations(nil))
	require.Nil(t, Combinations([]types.EntityID{7}))
	require.Equal(t, []types.Pair{{A: 7, B: 8}}, Combinations([]types.EntityID{7, 8}))
	require.Equal(t, []types.Pair{
		{A: 4, B: 2}, {A: 4, B: 9}, {A: 4, B: 1},
		{A: 2, B: 9}, {A: 2, B: 1},
		{A: 9, B: 1},
	}, Combinations([]types.EntityID{4, 2, 9, 1}))

	ids := make([]types.EntityID, 30)
	for i := range ids {
		ids[i] = types.EntityID(i + 1)
	}
	require.Len(t, Combinations(ids), 30*29/2)
}

func TestWithout(t *testing.T) {
	require.Equal(t, []types.EntityID{4, 9}, Without([]types.EntityID{4, 2, 9, 1}, 2, 1))
	require.Empty(t, Without([]types.EntityID{1}, 1))
	require.Equal(t, []types.EntityID{1, 2}, Without([]types.EntityID{1, 2}))
}

func TestRankPairs(t *testing.T) {
	t.Run("friend_fixture", func(t *testing.T) {
		in := friendFixture(t)
		s := scoring.New(in.Rules, in.Index)

		ranked := RankPairs(s, in.Focal, Combinations([]types.EntityID{2, 3, 4}), 3)
		require.Equal(t, []RankedPair{
			{Pair: types.Pair{A: 2, B: 3}, Score: 10},
			{Pair: types.Pair{A: 2, B: 4}, Score: 0},
			{Pair: types.Pair{A: 3, B: 4}, Score: 0},
		}, ranked)
	})

	t.Run("focal_without_memberships_scores_shared_groups", func(t *testing.T) {
		idx, err := relation.Build([]types.RelationGroup{
			{RelationType: "a", EntityID: 5}, {RelationType: "a", EntityID: 6},
			{RelationType: "b", EntityID: 2}, {RelationType: "b", EntityID: 6},
		})
		require.NoError(t, err)
		s := scoring.New([]types.RelationRule{{RelationType: "a", Points: 3}, {RelationType: "b", Points: 1}}, idx)

		pairs := Combinations([]types.EntityID{2, 3, 4, 5, 6})
		for _, p := range pairs {
			if p == (types.Pair{A: 5, B: 6}) || p == (types.Pair{A: 2, B: 6}) {
				continue
			}
			require.Zero(t, s.PairScore(1, p.A, p.B))
		}

		// pairs sharing a group still score through condition 1 only
		ranked := RankPairs(s, 1, pairs, 3)
		require.Equal(t, []RankedPair{
			{Pair: types.Pair{A: 5, B: 6}, Score: 3},
			{Pair: types.Pair{A: 2, B: 6}, Score: 1},
			{Pair: types.Pair{A: 2, B: 3}, Score: 0},
		}, ranked)

		empty := scoring.New(nil, idx)
		require.Equal(t, []RankedPair{
			{Pair: types.Pair{A: 2, B: 3}},
			{Pair: types.Pair{A: 2, B: 4}},
			{Pair: types.Pair{A: 2, B: 5}},
		}, RankPairs(empty, 1, pairs, 3))
	})

	t.Run("all_pairs_zero_keeps_enumeration_order", func(t *testing.T) {
		idx, err := relation.Build([]types.RelationGroup{
			{RelationType: "a", EntityID: 6}, {RelationType: "a", EntityID: 7},
			{RelationType: "b", EntityID: 3}, {RelationType: "b", EntityID: 8},
			{RelationType: "c", EntityID: 5},
			{RelationType: "d", EntityID: 2},
			{RelationType: "e", EntityID: 4},
		})
		require.NoError(t, err)
		s := scoring.New([]types.RelationRule{
			{RelationType: "a", Points: 4}, {RelationType: "b", Points: 2},
			{RelationType: "c", Points: 1}, {RelationType: "d", Points: 1},
			{RelationType: "e", Points: 1},
		}, idx)

		pairs := Combinations([]types.EntityID{6, 3, 5, 2, 4})
		for _, p := range pairs {
			require.Zero(t, s.PairScore(1, p.A, p.B), "pair %v", p)
		}

		require.Equal(t, []RankedPair{
			{Pair: types.Pair{A: 6, B: 3}},
			{Pair: types.Pair{A: 6, B: 5}},
			{Pair: types.Pair{A: 6, B: 2}},
		}, RankPairs(s, 1, pairs, 3))
	})

	t.Run("fewer_pairs_than_retained", func(t *testing.T) {
		s := scoring.New(nil, nil)
		require.Len(t, RankPairs(s, 1, Combinations([]types.EntityID{2, 3}), 3), 1)
		require.Empty(t, RankPairs(s, 1, nil, 3))
	})
}
