package search

import (
	"cmp"
	"slices"

	"github.com/umafamily/affinity/pkg/scoring"
	"github.com/umafamily/affinity/pkg/types"
)

// Combinations returns every unordered pair of ids, C(n, 2) in total. Pairs are
// emitted in position order: (ids[0], ids[1]), (ids[0], ids[2]), ...
func Combinations(ids []types.EntityID) []types.Pair {
	n := len(ids)
	if n < 2 {
		return nil
	}
	pairs := make([]types.Pair, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, types.Pair{A: ids[i], B: ids[j]})
		}
	}
	return pairs
}

// Without returns ids minus every id in exclude, preserving order.
func Without(ids []types.EntityID, exclude ...types.EntityID) []types.EntityID {
	out := make([]types.EntityID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(exclude, id) {
			out = append(out, id)
		}
	}
	return out
}

// RankedPair is a parent pair with its pair score.
type RankedPair struct {
	Pair  types.Pair
	Score int
}

// RankPairs scores every parent pair, orders them by score descending and keeps
// the first n. Ties keep their enumeration order. When fewer than n pairs exist
// all of them are kept.
func RankPairs(s *scoring.Scorer, focal types.EntityID, pairs []types.Pair, n int) []RankedPair {
	ranked := make([]RankedPair, 0, len(pairs))
	for _, p := range pairs {
		ranked = append(ranked, RankedPair{Pair: p, Score: s.PairScore(focal, p.A, p.B)})
	}

	slices.SortStableFunc(ranked, func(a, b RankedPair) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
